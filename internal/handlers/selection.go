package handlers

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"planogram-dashboard/internal/errors"
	"planogram-dashboard/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// selectionInput is a dashboard selection as it arrives over the wire, from
// query parameters or datastar signals.
type selectionInput struct {
	Store   string `json:"store" validate:"required"`
	Theme   string `json:"theme" validate:"required"`
	Start   string `json:"start" validate:"required,datetime=2006-01-02"`
	Metric  string `json:"metric" validate:"omitempty,oneof=sales_amount sales_quantity unique_customers receipts"`
	Product string `json:"product" validate:"max=256"`
}

func selectionFromQuery(q url.Values) selectionInput {
	return selectionInput{
		Store:   strings.TrimSpace(q.Get("store")),
		Theme:   strings.TrimSpace(q.Get("theme")),
		Start:   strings.TrimSpace(q.Get("start")),
		Metric:  strings.TrimSpace(q.Get("metric")),
		Product: strings.TrimSpace(q.Get("product")),
	}
}

func (in selectionInput) parse() (models.Selection, error) {
	if err := validate.Struct(in); err != nil {
		return models.Selection{}, validationError(err)
	}
	start, err := time.ParseInLocation(time.DateOnly, in.Start, time.UTC)
	if err != nil {
		return models.Selection{}, errors.ValidationWrap(err, "start must be a date like 2024-04-01")
	}
	return models.Selection{
		StoreName: in.Store,
		ThemeName: in.Theme,
		Start:     start,
		Metric:    models.Metric(in.Metric),
		ProductID: in.Product,
	}, nil
}

// validationError turns validator output into one readable message.
func validationError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.ValidationWrap(err, "invalid selection")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a date like %s", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return errors.ValidationWrap(err, strings.Join(msgs, "; "))
}
