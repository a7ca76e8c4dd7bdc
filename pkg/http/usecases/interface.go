package usecases

import (
	"github.com/lintang-b-s/routegen/pkg/scenario"
)

type ScenarioProvider interface {
	GetScenario(name string) (*scenario.Scenario, error)
}
