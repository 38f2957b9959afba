package main

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "kopacash/internal/adapter/http"
	appmw "kopacash/internal/adapter/middleware"
	"kopacash/internal/adapter/repository/mysql"
	"kopacash/internal/config"
	loanDomain "kopacash/internal/domain/loan"
	settingsDomain "kopacash/internal/domain/settings"
	txnDomain "kopacash/internal/domain/transaction"
	userDomain "kopacash/internal/domain/user"
	"kopacash/internal/infrastructure/cache"
	"kopacash/internal/infrastructure/db"
	"kopacash/internal/notify"
	"kopacash/internal/payment"
	adminUC "kopacash/internal/usecase/admin"
	"kopacash/internal/usecase/eligibility"
	loanUC "kopacash/internal/usecase/loan"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := gdb.AutoMigrate(
		&userDomain.User{},
		&loanDomain.Loan{},
		&txnDomain.Transaction{},
		&settingsDomain.Setting{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := seedSettings(mysql.NewSettingsRepository(gdb)); err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	unit := mysql.NewGormUoW(gdb)
	gateway := payment.NewRegistry(time.Duration(cfg.PaymentTimeoutSecs) * time.Second)
	events := notify.NewDispatcher(nil, nil)

	loans := loanUC.NewUsecase(unit, gateway, events)
	elig := eligibility.NewService(unit)
	adm := adminUC.NewUsecase(loans, unit, events)

	h := httpadp.NewHandler()
	loanH := httpadp.NewLoanHandler(loans)
	userH := httpadp.NewUserHandler(loans, elig)
	adminH := httpadp.NewAdminHandler(adm)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	idem := appmw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	e.GET("/health", h.Health)

	// borrower routes
	e.POST("/loan/apply", loanH.Apply, httpadp.RequireUser, idem)
	e.POST("/loan/:loan_id/pay-fee", loanH.PayFee, httpadp.RequireUser, idem)
	e.GET("/loan/:loan_id", loanH.Get, httpadp.RequireUser)
	e.GET("/user/eligibility", userH.Eligibility, httpadp.RequireUser)
	e.GET("/user/loans", userH.Loans, httpadp.RequireUser)
	e.GET("/user/transactions", userH.Transactions, httpadp.RequireUser)

	// provider callbacks carry no gateway headers; redelivery is handled by
	// the usecase (already-resolved references are no-ops)
	e.POST("/loan/stk-callback", loanH.StkCallback)
	e.POST("/loan/disbursement-callback", loanH.DisbursementCallback)

	// admin routes
	g := e.Group("/admin", httpadp.RequireAdmin)
	g.PATCH("/loan/:loan_id/approve", adminH.Approve, idem)
	g.PATCH("/loan/:loan_id/auto-approve", adminH.AutoApprove, idem)
	g.PATCH("/loan/:loan_id/special-approve", adminH.SpecialApprove, idem)
	g.PATCH("/loan/:loan_id/reject", adminH.Reject, idem)
	g.PATCH("/loan/:loan_id/default", adminH.MarkDefaulted, idem)
	g.POST("/loan/:loan_id/disbursement", adminH.Disburse, idem)
	g.POST("/loan/:loan_id/refund", adminH.Refund, idem)
	g.GET("/loan/:loan_id/transactions", adminH.LoanTransactions)
	g.GET("/loan-queue", adminH.Queue)
	g.GET("/stats", adminH.Stats)
	g.GET("/settings", adminH.Settings)
	g.PATCH("/settings/:key", adminH.UpdateSetting, idem)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedSettings inserts the loan configuration keys on first boot so admins
// edit rows instead of relying on compiled-in fallbacks.
func seedSettings(repo *mysql.SettingsRepository) error {
	defaults := settingsDomain.Defaults()
	seed := []settingsDomain.Setting{
		{Key: settingsDomain.KeyMinLoanAmount, Value: formatAmount(defaults.MinLoanAmount),
			Description: "Minimum loan principal", Category: "loan", IsEditable: true},
		{Key: settingsDomain.KeyMaxLoanAmount, Value: formatAmount(defaults.MaxLoanAmount),
			Description: "Maximum loan principal", Category: "loan", IsEditable: true},
		{Key: settingsDomain.KeyApplicationFee, Value: formatAmount(defaults.ApplicationFee),
			Description: "Fixed application fee", Category: "loan", IsEditable: true},
		{Key: settingsDomain.KeyApplicationFeePercent, Value: formatAmount(defaults.ApplicationFeePercent),
			Description: "Fee as percent of principal, overrides the fixed fee when set", Category: "loan", IsEditable: true},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := range seed {
		_, err := repo.Get(ctx, seed[i].Key)
		if err == nil {
			continue
		}
		if !errors.Is(err, settingsDomain.ErrNotFound) {
			return err
		}
		if err := repo.Save(ctx, &seed[i]); err != nil {
			return err
		}
	}
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
