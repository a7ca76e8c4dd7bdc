package usecases

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/routegen/pkg/logger"
	"github.com/lintang-b-s/routegen/pkg/scenario"
	"github.com/lintang-b-s/routegen/pkg/util"
	"go.uber.org/zap"
)

const SCENARIO_FILE_EXT = ".scenario.bz2"

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrBadScenarioName  = errors.New("bad scenario name")

	scenarioNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ScenarioStore reads scenario files from a directory and keeps the most
// recently used ones in memory. Scenarios are immutable, so cached ones are
// shared between requests.
type ScenarioStore struct {
	dir   string
	cache *lru.Cache[string, *scenario.Scenario]
	log   *zap.Logger
}

func NewScenarioStore(dir string, cacheSize int, log *zap.Logger) (*ScenarioStore, error) {
	cache, err := lru.New[string, *scenario.Scenario](cacheSize)
	if err != nil {
		return nil, err
	}
	return &ScenarioStore{
		dir:   dir,
		cache: cache,
		log:   logger.OrNop(log),
	}, nil
}

// GetScenario returns the scenario stored in <dir>/<name>.scenario.bz2.
func (s *ScenarioStore) GetScenario(name string) (*scenario.Scenario, error) {
	if !scenarioNameRe.MatchString(name) {
		return nil, util.WrapErrorf(ErrBadScenarioName, util.ErrBadParamInput, "%q", name)
	}
	if sc, ok := s.cache.Get(name); ok {
		return sc, nil
	}

	filename := filepath.Join(s.dir, name+SCENARIO_FILE_EXT)
	sc, err := scenario.ReadScenario(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, util.WrapErrorf(ErrScenarioNotFound, util.ErrNotFound, "%q", name)
	} else if err != nil {
		return nil, err
	}

	s.log.Info("scenario loaded", zap.String("file", filename), zap.Int("nodes", sc.NumberOfNodes()))
	s.cache.Add(name, sc)
	return sc, nil
}

func (s *ScenarioStore) Len() int {
	return s.cache.Len()
}
