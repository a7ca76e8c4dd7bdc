package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/routegen/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type evaluationAPI struct {
	evaluationService EvaluationService
	log               *zap.Logger
	validate          *validator.Validate
	trans             ut.Translator
}

func New(evaluationService EvaluationService, log *zap.Logger) *evaluationAPI {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return &evaluationAPI{
		evaluationService: evaluationService,
		log:               log,
		validate:          validate,
		trans:             trans,
	}
}

func (api *evaluationAPI) Routes(group *helper.RouteGroup) {
	group.POST("/evaluate", api.evaluate)
}

func (api *evaluationAPI) evaluate(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}

	if err := api.validate.Struct(request); err != nil {
		vv := translateError(err, api.trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		api.BadRequestResponse(w, r, fmt.Errorf("validation error: %v", vvString))
		return
	}

	res, err := api.evaluationService.Evaluate(r.Context(), request.toUsecase())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewEvaluateResponse(res)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
