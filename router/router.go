package router

import (
	"net/http"
	"webbank/handler"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func NewRouter(userHandler *handler.UserHandler, accountHandler *handler.AccountHandler,
	transferHandler *handler.TransferHandler, balanceHandler *handler.BalanceHandler) http.Handler {

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	mux.Handle("POST /register", handler.ErrorHandlingMiddleware(userHandler.Register))
	mux.Handle("POST /login", handler.ErrorHandlingMiddleware(userHandler.Login))

	// Everything under /api requires a valid bearer token.
	api := http.NewServeMux()
	api.Handle("POST /accounts", handler.ErrorHandlingMiddleware(accountHandler.CreateAccount))
	api.Handle("GET /accounts", handler.ErrorHandlingMiddleware(accountHandler.ListAccounts))
	api.Handle("DELETE /accounts/{iban}", handler.ErrorHandlingMiddleware(accountHandler.DeleteAccount))
	api.Handle("GET /accounts/{iban}/transactions", handler.ErrorHandlingMiddleware(transferHandler.ListTransactionsForAccount))
	api.Handle("POST /transfers/internal", handler.ErrorHandlingMiddleware(transferHandler.InternalTransfer))
	api.Handle("POST /transfers/external", handler.ErrorHandlingMiddleware(transferHandler.ExternalTransfer))
	api.Handle("GET /balance", handler.ErrorHandlingMiddleware(balanceHandler.TotalBalance))

	admin := http.NewServeMux()
	admin.Handle("GET /accounts", handler.ErrorHandlingMiddleware(accountHandler.ListAllAccounts))
	api.Handle("/admin/", http.StripPrefix("/admin", handler.AdminMiddleware(admin)))

	mux.Handle("/api/", http.StripPrefix("/api", handler.AuthMiddleware(api)))

	return mux
}
