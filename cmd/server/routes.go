package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zichdan/paycore/internal/interfaces/http/handlers"
	"github.com/zichdan/paycore/internal/interfaces/http/middleware"
)

type routeDeps struct {
	walletHandler       *handlers.WalletHandler
	txnHandler          *handlers.TransactionHandler
	loanHandler         *handlers.LoanHandler
	investmentHandler   *handlers.InvestmentHandler
	cardHandler         *handlers.CardHandler
	billHandler         *handlers.BillHandler
	merchantHandler     *handlers.MerchantHandler
	notificationHandler *handlers.NotificationHandler
	withdrawalHandler   *handlers.WithdrawalHandler
	kycHandler          *handlers.KYCHandler
	currencyHandler     *handlers.CurrencyHandler
	authMiddleware      gin.HandlerFunc
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "paycore",
			"version": "0.1.0",
		})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Currency reference data (public)
		v1.GET("/currencies", d.currencyHandler.ListCurrencies)

		// Wallet routes (protected)
		wallets := v1.Group("/wallets")
		wallets.Use(d.authMiddleware)
		{
			wallets.POST("", d.walletHandler.CreateWallet)
			wallets.GET("", d.walletHandler.ListWallets)
			wallets.GET("/summary", d.walletHandler.GetSummary)
			wallets.POST("/transfer", middleware.IdempotencyMiddleware(), d.walletHandler.Transfer)
			wallets.GET("/:id", d.walletHandler.GetWallet)
			wallets.PUT("/:id/pin", d.walletHandler.SetPIN)
			wallets.DELETE("/:id", d.walletHandler.CloseWallet)
		}

		// Transaction routes (protected)
		transactions := v1.Group("/transactions")
		transactions.Use(d.authMiddleware)
		{
			transactions.GET("", d.txnHandler.ListTransactions)
			transactions.GET("/stats", d.txnHandler.GetStats)
			transactions.GET("/:id", d.txnHandler.GetTransaction)
			transactions.POST("/:id/reverse", d.txnHandler.ReverseTransaction)
		}

		// Loan routes (protected)
		loans := v1.Group("/loans")
		loans.Use(d.authMiddleware)
		{
			loans.GET("/products", d.loanHandler.ListProducts)
			loans.GET("/summary", d.loanHandler.GetSummary)
			loans.GET("/credit-score", d.loanHandler.GetCreditScore)
			loans.POST("", middleware.IdempotencyMiddleware(), d.loanHandler.Apply)
			loans.GET("/:id", d.loanHandler.GetLoan)
			loans.POST("/:id/repay", middleware.IdempotencyMiddleware(), d.loanHandler.Repay)
			loans.POST("/:id/cancel", d.loanHandler.Cancel)
		}

		// Investment routes (protected)
		investments := v1.Group("/investments")
		investments.Use(d.authMiddleware)
		{
			investments.GET("/products", d.investmentHandler.ListProducts)
			investments.GET("/portfolio", d.investmentHandler.GetPortfolio)
			investments.POST("", middleware.IdempotencyMiddleware(), d.investmentHandler.CreateInvestment)
			investments.GET("", d.investmentHandler.ListInvestments)
			investments.GET("/:id", d.investmentHandler.GetInvestment)
			investments.POST("/:id/liquidate", d.investmentHandler.Liquidate)
			investments.POST("/:id/renew", d.investmentHandler.Renew)
		}

		// Card routes (protected)
		cards := v1.Group("/cards")
		cards.Use(d.authMiddleware)
		{
			cards.POST("", d.cardHandler.IssueCard)
			cards.GET("", d.cardHandler.ListCards)
			cards.GET("/:id", d.cardHandler.GetCard)
			cards.POST("/:id/freeze", d.cardHandler.FreezeCard)
			cards.POST("/:id/unfreeze", d.cardHandler.UnfreezeCard)
			cards.DELETE("/:id", d.cardHandler.TerminateCard)
		}

		// Bill routes (protected)
		bills := v1.Group("/bills")
		bills.Use(d.authMiddleware)
		{
			bills.GET("/providers", d.billHandler.ListProviders)
			bills.GET("/providers/:code/packages", d.billHandler.ListPackages)
			bills.POST("/validate", d.billHandler.ValidateCustomer)
			bills.POST("/pay", middleware.IdempotencyMiddleware(), d.billHandler.PayBill)
			bills.GET("/payments", d.billHandler.ListPayments)
			bills.GET("/payments/:id", d.billHandler.GetPayment)
			bills.GET("/beneficiaries", d.billHandler.ListBeneficiaries)
			bills.DELETE("/beneficiaries/:id", d.billHandler.DeleteBeneficiary)
		}

		// Withdrawal routes (protected)
		withdrawals := v1.Group("/withdrawals")
		withdrawals.Use(d.authMiddleware)
		{
			withdrawals.GET("/banks", d.withdrawalHandler.ListBanks)
			withdrawals.POST("/verify-account", d.withdrawalHandler.VerifyAccount)
			withdrawals.POST("", middleware.IdempotencyMiddleware(), d.withdrawalHandler.Withdraw)
			withdrawals.POST("/:reference/verify", d.withdrawalHandler.VerifyWithdrawal)
		}

		// Merchant routes (protected)
		merchant := v1.Group("/merchant")
		merchant.Use(d.authMiddleware)
		{
			merchant.POST("/links", d.merchantHandler.CreatePaymentLink)
			merchant.GET("/links", d.merchantHandler.ListPaymentLinks)
			merchant.POST("/invoices", d.merchantHandler.CreateInvoice)
			merchant.GET("/invoices", d.merchantHandler.ListInvoices)
			merchant.POST("/invoices/:id/send", d.merchantHandler.SendInvoice)
			merchant.POST("/api-keys", d.merchantHandler.CreateAPIKey)
			merchant.GET("/api-keys", d.merchantHandler.ListAPIKeys)
			merchant.DELETE("/api-keys/:id", d.merchantHandler.RevokeAPIKey)
		}

		// Payment link resolution is public; paying requires auth
		v1.GET("/pay/:slug", d.merchantHandler.GetPaymentLink)
		v1.POST("/pay/:slug", d.authMiddleware, middleware.IdempotencyMiddleware(), d.merchantHandler.PayPaymentLink)
		v1.POST("/invoices/:number/pay", d.authMiddleware, middleware.IdempotencyMiddleware(), d.merchantHandler.PayInvoice)

		// Notification routes (protected)
		notifications := v1.Group("/notifications")
		notifications.Use(d.authMiddleware)
		{
			notifications.GET("", d.notificationHandler.ListNotifications)
			notifications.PUT("/:id/read", d.notificationHandler.MarkRead)
			notifications.GET("/preferences", d.notificationHandler.GetPreferences)
			notifications.PUT("/preferences", d.notificationHandler.UpdatePreferences)
		}

		// KYC routes (protected)
		kyc := v1.Group("/kyc")
		kyc.Use(d.authMiddleware)
		{
			kyc.POST("", d.kycHandler.SubmitKYC)
			kyc.GET("/status", d.kycHandler.GetStatus)
		}

		// Provider webhooks (signature-verified, no session auth)
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/cards/:provider", d.cardHandler.HandleWebhook)
		}

		// Admin routes (protected)
		admin := v1.Group("/admin")
		admin.Use(d.authMiddleware, middleware.RequireAdmin())
		{
			admin.POST("/loans/:id/approve", d.loanHandler.Approve)
			admin.POST("/loans/:id/reject", d.loanHandler.Reject)
			admin.POST("/loans/:id/disburse", d.loanHandler.Disburse)

			admin.POST("/kyc/:id/approve", d.kycHandler.ApproveKYC)
			admin.POST("/kyc/:id/reject", d.kycHandler.RejectKYC)
		}
	}
}
