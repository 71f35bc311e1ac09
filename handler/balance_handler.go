package handler

import (
	"encoding/json"
	"net/http"
	"webbank/common"
	"webbank/model"
	"webbank/service"
)

type BalanceHandler struct {
	service *service.BalanceService
}

func NewBalanceHandler(s *service.BalanceService) *BalanceHandler {
	return &BalanceHandler{service: s}
}

// TotalBalance godoc
// @Summary      Aggregate the user's total balance
// @Description  Sums the authenticated user's balances across all accounts, converted into the requested reporting currency.
// @Tags         balance
// @Produce      json
// @Security     BearerAuth
// @Param        currency query string true "Reporting currency (USD, EUR or PLN)"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  common.AppError "Unsupported reporting currency"
// @Failure      401  {object}  common.AppError "Unauthorized"
// @Failure      500  {object}  common.AppError "Rate provider or storage failure"
// @Router       /api/balance [get]
func (h *BalanceHandler) TotalBalance(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	currency := model.Currency(r.URL.Query().Get("currency"))

	total, err := h.service.TotalBalance(r.Context(), userID, currency)
	if err != nil {
		if err == service.ErrUnsupportedCurrency {
			return common.NewAppError(http.StatusBadRequest, err.Error(), err)
		}
		return common.NewAppError(http.StatusInternalServerError, "Could not aggregate balance", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"currency": currency,
		"total":    total,
	})
	return nil
}
