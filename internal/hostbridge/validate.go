package hostbridge

import (
	"github.com/go-playground/validator/v10"

	"github.com/dwarvesf/xray-txhistory/internal/model"
	"github.com/dwarvesf/xray-txhistory/internal/utils/address"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("bech32addr", func(fl validator.FieldLevel) bool {
		return address.IsPaymentAddress(fl.Field().String())
	})
	_ = v.RegisterValidation("network", func(fl validator.FieldLevel) bool {
		return model.Network(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("explorer", func(fl validator.FieldLevel) bool {
		return model.Explorer(fl.Field().String()).Valid()
	})
	return v
}
