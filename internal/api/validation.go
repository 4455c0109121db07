package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/teacheasy/teacheasy/internal/store"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

var (
	schoolRegions = store.SchoolRegions
	gradeLevels   = store.GradeLevels
	subjectNames  = store.SubjectNames
	fundingNeeds  = store.FundingNeeds
)

// custom tags and the messages reported for them
var customTags = map[string]struct {
	allowed []string
	message string
}{
	"region":      {schoolRegions, "Invalid school region"},
	"grade":       {gradeLevels, "Invalid grade level"},
	"subject":     {subjectNames, "Invalid subject"},
	"fundingneed": {fundingNeeds, "Invalid funding need"},
}

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, def := range customTags {
		allowed := def.allowed
		_ = validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return contains(allowed, fl.Field().String())
		})
	}
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validationErrors flattens a validator error into field/message pairs keyed
// by JSON path.
func validationErrors(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Message: err.Error()}}
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		msg := fe.Translate(translator)
		if def, ok := customTags[fe.Tag()]; ok {
			msg = def.message
		}
		out = append(out, fieldError{Field: field, Message: msg})
	}
	return out
}

// validateBody runs struct validation and writes a 400 on failure. It reports
// whether the handler may continue.
func validateBody(w http.ResponseWriter, v interface{}) bool {
	if err := validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": validationErrors(err)})
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
