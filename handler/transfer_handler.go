package handler

import (
	"encoding/json"
	"net/http"
	"webbank/common"
	"webbank/model"
	"webbank/service"
)

// TransferHandler holds dependencies for money-movement endpoints.
type TransferHandler struct {
	service *service.TransferService
}

func NewTransferHandler(s *service.TransferService) *TransferHandler {
	return &TransferHandler{service: s}
}

// mapTransferError translates the engine's error taxonomy into HTTP status
// families. Each kind stays distinguishable; nothing collapses "insufficient
// funds" and "not found" into the same signal.
func mapTransferError(err error) *common.AppError {
	switch err {
	case service.ErrSourceAccountNotFound, service.ErrDestinationAccountNotFound,
		service.ErrAccountNotFound, service.ErrUserNotFound, service.ErrRecipientNotFound:
		return common.NewAppError(http.StatusNotFound, err.Error(), err)
	case service.ErrPermissionDenied, service.ErrSelfRecipient:
		return common.NewAppError(http.StatusForbidden, err.Error(), err)
	case service.ErrInsufficientFunds, service.ErrCurrencyMismatch, service.ErrSameAccountTransfer,
		service.ErrInvalidAmount, service.ErrNoMatchingAccount, service.ErrUnsupportedRecipient:
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Could not process transfer", err)
	}
}

// InternalTransfer godoc
// @Summary      Transfer money between two IBANs
// @Description  Debits the requester's source account and credits the destination IBAN. Both accounts must share a currency.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transfer body model.InternalTransferRequest true "Source IBAN, destination IBAN and amount"
// @Success      200  {object}  model.TransferResult
// @Failure      400  {object}  common.AppError "Invalid amount, same-account transfer or currency mismatch"
// @Failure      401  {object}  common.AppError "Unauthorized"
// @Failure      403  {object}  common.AppError "Source account not owned by requester"
// @Failure      404  {object}  common.AppError "Source or destination account not found"
// @Failure      500  {object}  common.AppError "Internal server error while processing transfer"
// @Router       /api/transfers/internal [post]
func (h *TransferHandler) InternalTransfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.InternalTransferRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	result, err := h.service.InternalTransfer(r.Context(), userID, req.FromIBAN, req.ToIBAN, req.Amount)
	if err != nil {
		return mapTransferError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
	return nil
}

// ExternalTransfer godoc
// @Summary      Transfer money to a recipient descriptor
// @Description  Debits the requester's source account and credits a recipient addressed by IBAN, user id or account id.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transfer body model.ExternalTransferRequest true "Source IBAN, amount, recipient descriptor and category"
// @Success      200  {object}  model.TransferResult
// @Failure      400  {object}  common.AppError "Invalid amount, currency mismatch or unsupported recipient"
// @Failure      401  {object}  common.AppError "Unauthorized"
// @Failure      403  {object}  common.AppError "Source not owned by requester, or recipient is the requester"
// @Failure      404  {object}  common.AppError "Source account or recipient not found"
// @Failure      500  {object}  common.AppError "Internal server error while processing transfer"
// @Router       /api/transfers/external [post]
func (h *TransferHandler) ExternalTransfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ExternalTransferRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	result, err := h.service.ExternalTransfer(r.Context(), userID, req)
	if err != nil {
		return mapTransferError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
	return nil
}

// ListTransactionsForAccount godoc
// @Summary      List account transaction history
// @Description  Retrieves the transaction history for an account owned by the authenticated user, newest first.
// @Tags         transfers
// @Produce      json
// @Security     BearerAuth
// @Param        iban path string true "IBAN of the account"
// @Success      200  {array}   model.Transaction
// @Failure      401  {object}  common.AppError "Unauthorized"
// @Failure      403  {object}  common.AppError "Account not owned by requester"
// @Failure      404  {object}  common.AppError "Account not found"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/accounts/{iban}/transactions [get]
func (h *TransferHandler) ListTransactionsForAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	iban := r.PathValue("iban")
	if iban == "" {
		return common.NewAppError(http.StatusBadRequest, "Missing IBAN in URL path", nil)
	}

	transactions, err := h.service.ListTransactionsForAccount(r.Context(), userID, iban)
	if err != nil {
		switch err {
		case service.ErrAccountNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		case service.ErrPermissionDenied:
			return common.NewAppError(http.StatusForbidden, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not retrieve transactions", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transactions)
	return nil
}
