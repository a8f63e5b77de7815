package handler

import (
	"strings"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the custom binding validators on gin's
// validator engine. Call once before serving.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("fullsymbol", validFullSymbol)
	}
}

// validFullSymbol accepts a fully-qualified symbol name: an optional exchange
// prefix followed by a BASE/QUOTE pair, e.g. "BINANCE:BTC/USDT.P"
func validFullSymbol(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	parsed := model.ParseFullName(value)
	if parsed.Symbol == "" {
		return false
	}
	display := strings.TrimSuffix(parsed.Display, ".P")
	base, quote, ok := strings.Cut(display, "/")
	return ok && base != "" && quote != ""
}
