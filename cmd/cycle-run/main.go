// cycle-run aggregates one vendor's closed cycle window by hand. It is an
// operator tool for re-running a missed scheduler tick or settling a vendor
// out of band.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"settleline.backend/internal/config"
	"settleline.backend/internal/domain/entities"
	domainerrors "settleline.backend/internal/domain/errors"
	"settleline.backend/internal/infrastructure/fraud"
	"settleline.backend/internal/infrastructure/repositories"
	"settleline.backend/internal/usecases"
	"settleline.backend/pkg/logger"
)

func main() {
	vendorFlag := flag.String("vendor", "", "vendor id (required)")
	atFlag := flag.String("at", "", "RFC3339 instant inside the open period; the closed period before it is settled (default: now)")
	review := flag.Bool("review", true, "run auto-review after aggregation")
	flag.Parse()

	if *vendorFlag == "" {
		log.Fatal("missing -vendor")
	}
	vendorID, err := uuid.Parse(*vendorFlag)
	if err != nil {
		log.Fatalf("invalid vendor id: %v", err)
	}

	at := time.Now()
	if *atFlag != "" {
		at, err = time.Parse(time.RFC3339, *atFlag)
		if err != nil {
			log.Fatalf("invalid -at: %v", err)
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()
	logger.Init(cfg.Server.Env)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.Database.URL(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{PrepareStmt: false})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	orderRepo := repositories.NewOrderRepository(db)
	vendorRepo := repositories.NewVendorRepository(db)
	settlementRepo := repositories.NewSettlementRepository(db)
	adjustmentRepo := repositories.NewAdjustmentRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	uow := repositories.NewUnitOfWork(db)

	var fraudPredicate usecases.FraudPredicate = fraud.StaticPredicate{}
	if cfg.Fraud.BaseURL != "" {
		fraudPredicate = fraud.NewClient(cfg.Fraud.BaseURL, cfg.Fraud.Timeout)
	}

	settlements := usecases.NewSettlementUsecase(
		orderRepo, vendorRepo, settlementRepo, adjustmentRepo, auditRepo, uow,
		fraudPredicate,
		cfg.Settlement.MaxAttempts,
		cfg.Settlement.BackoffBase,
		cfg.Settlement.BackoffMax,
		cfg.Settlement.DueDateGrace,
	)

	ctx := context.Background()

	vendor, err := vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		log.Fatalf("failed to load vendor: %v", err)
	}

	period := usecases.ClosedPeriod(vendor.SettlementCycle, at)
	fmt.Printf("Settling vendor %s (%s cycle)\n", vendor.ID, vendor.SettlementCycle)
	fmt.Printf("Period: %s .. %s\n", period.Start.Format(time.RFC3339), period.End.Format(time.RFC3339))

	settlement, err := settlements.CreateSettlement(ctx, vendorID, period)
	if err != nil {
		if err == domainerrors.ErrNoEligibleOrders {
			fmt.Println("No eligible orders in the window, nothing to settle")
			return
		}
		log.Fatalf("aggregation failed: %v", err)
	}

	fmt.Printf("Settlement %s status=%s\n", settlement.ID, settlement.Status)
	fmt.Printf("  gross=%d commission=%d adjustments=%d net=%d\n",
		settlement.GrossAmount, settlement.CommissionDeducted, settlement.AdjustmentApplied, settlement.NetAmount)

	if *review && settlement.Status == entities.SettlementStatusPending {
		if err := settlements.AutoReview(ctx, settlement); err != nil {
			log.Fatalf("auto-review failed: %v", err)
		}
		reviewed, err := settlements.GetSettlement(ctx, settlement.ID)
		if err != nil {
			log.Fatalf("failed to reload settlement: %v", err)
		}
		fmt.Printf("After review: status=%s\n", reviewed.Status)
	}
}
