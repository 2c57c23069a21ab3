// Command seed fills a development database with fake branches, staff,
// customers, sales and payments through the application services, so every
// row passes the same validation as API traffic.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	identityapp "github.com/gasdist/backend/internal/application/identity"
	partnerapp "github.com/gasdist/backend/internal/application/partner"
	salesapp "github.com/gasdist/backend/internal/application/sales"
	"github.com/gasdist/backend/internal/domain/sales"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/gasdist/backend/internal/infrastructure/auth"
	"github.com/gasdist/backend/internal/infrastructure/config"
	"github.com/gasdist/backend/internal/infrastructure/logger"
	"github.com/gasdist/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var unitPrices = map[sales.CylinderType]decimal.Decimal{
	sales.Cylinder6kg:  decimal.NewFromInt(1200),
	sales.Cylinder13kg: decimal.NewFromInt(2500),
	sales.Cylinder50kg: decimal.NewFromInt(9500),
}

type options struct {
	branches      int
	customers     int
	transactions  int
	days          int
	seed          uint64
	adminUser     string
	adminPassword string
}

func main() {
	var opts options
	flag.IntVar(&opts.branches, "branches", 3, "Number of branches to create")
	flag.IntVar(&opts.customers, "customers", 40, "Number of customers to create")
	flag.IntVar(&opts.transactions, "transactions", 300, "Number of sales to record")
	flag.IntVar(&opts.days, "days", 90, "Spread sales over this many past days")
	flag.Uint64Var(&opts.seed, "seed", 0, "Random seed (0 picks one)")
	flag.StringVar(&opts.adminUser, "admin-user", "admin", "Username of the admin account to create")
	flag.StringVar(&opts.adminPassword, "admin-password", "changeme123", "Password of the admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	if cfg.App.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}

	s := newSeeder(db, cfg, opts, log)
	if err := s.run(context.Background()); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
}

type seeder struct {
	opts  options
	faker *gofakeit.Faker
	log   *zap.Logger

	branches     *identityapp.BranchService
	users        *identityapp.UserService
	auth         *identityapp.AuthService
	jwt          *auth.JWTService
	customers    *partnerapp.CustomerService
	transactions *salesapp.TransactionService
	payments     *salesapp.PaymentService
}

func newSeeder(db *persistence.Database, cfg *config.Config, opts options, log *zap.Logger) *seeder {
	txm := persistence.NewTxManager(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	jwtService := auth.NewJWTService(cfg.JWT)

	return &seeder{
		opts:         opts,
		faker:        gofakeit.New(opts.seed),
		log:          log,
		branches:     identityapp.NewBranchService(branchRepo, userRepo, log),
		users:        identityapp.NewUserService(userRepo, branchRepo, auth.NewInMemoryRevocationStore(), cfg.JWT.AccessTokenExpiration, log),
		auth:         identityapp.NewAuthService(userRepo, jwtService, log),
		jwt:          jwtService,
		customers:    partnerapp.NewCustomerService(customerRepo, transactionRepo, paymentRepo, txm, log),
		transactions: salesapp.NewTransactionService(transactionRepo, paymentRepo, customerRepo, txm, log),
		payments:     salesapp.NewPaymentService(paymentRepo, transactionRepo, customerRepo, txm, log),
	}
}

func (s *seeder) run(ctx context.Context) error {
	admin, err := s.users.Create(ctx, identityapp.CreateUserRequest{
		Username: s.opts.adminUser,
		FullName: "Depot Administrator",
		Password: s.opts.adminPassword,
		Role:     "admin",
	})
	switch {
	case err == nil:
		s.log.Info("Admin created", zap.String("username", admin.Username))
	case errors.Is(err, shared.ErrAlreadyExists):
		s.log.Info("Admin already exists", zap.String("username", s.opts.adminUser))
	default:
		return fmt.Errorf("create admin: %w", err)
	}

	token, err := s.auth.IssueToken(ctx, s.opts.adminUser, s.opts.adminPassword)
	if err != nil {
		return fmt.Errorf("issue admin token: %w", err)
	}
	claims, err := s.jwt.ValidateToken(token.AccessToken)
	if err != nil {
		return fmt.Errorf("read admin token: %w", err)
	}
	operatorID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return fmt.Errorf("admin id: %w", err)
	}

	branchIDs := s.seedBranches(ctx)
	customerIDs := s.seedCustomers(ctx, branchIDs)
	if len(customerIDs) == 0 {
		return errors.New("no customers were created")
	}
	sold, paid := s.seedSales(ctx, operatorID, customerIDs, branchIDs)

	s.log.Info("Seeding finished",
		zap.Int("branches", len(branchIDs)),
		zap.Int("customers", len(customerIDs)),
		zap.Int("transactions", sold),
		zap.Int("payments", paid),
	)
	fmt.Printf("Admin bearer token (expires %s):\n%s\n", token.ExpiresAt.Format(time.RFC3339), token.AccessToken)
	return nil
}

func (s *seeder) seedBranches(ctx context.Context) []uuid.UUID {
	ids := make([]uuid.UUID, 0, s.opts.branches)
	for i := 0; i < s.opts.branches; i++ {
		city := s.faker.City()
		b, err := s.branches.Create(ctx, identityapp.CreateBranchRequest{
			Name:     fmt.Sprintf("%s Depot %d", city, i+1),
			Location: s.faker.Street() + ", " + city,
			Phone:    s.faker.Phone(),
		})
		if err != nil {
			s.log.Warn("Skipped branch", zap.Error(err))
			continue
		}
		ids = append(ids, b.ID)
	}
	return ids
}

func (s *seeder) seedCustomers(ctx context.Context, branchIDs []uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, 0, s.opts.customers)
	for i := 0; i < s.opts.customers; i++ {
		req := partnerapp.CreateCustomerRequest{
			Phone:        s.faker.Phone(),
			Address:      s.faker.Street() + ", " + s.faker.City(),
			CustomerType: "individual",
		}
		if s.faker.Number(1, 4) == 1 {
			req.CustomerType = "business"
			req.Name = s.faker.Company()
			limit := decimal.NewFromInt(int64(s.faker.Number(2, 20)) * 5000)
			req.CreditLimit = &limit
		} else {
			req.Name = s.faker.Name()
			req.Email = s.faker.Email()
		}
		if len(branchIDs) > 0 {
			b := branchIDs[s.faker.Number(0, len(branchIDs)-1)]
			req.BranchID = &b
		}
		c, err := s.customers.Create(ctx, req)
		if err != nil {
			s.log.Warn("Skipped customer", zap.String("name", req.Name), zap.Error(err))
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids
}

// seedSales records sales in date order; a third of credit sales are later
// settled with a payment against the transaction
func (s *seeder) seedSales(ctx context.Context, operatorID uuid.UUID, customerIDs, branchIDs []uuid.UUID) (int, int) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -s.opts.days)
	methods := []string{"cash", "cash", "mobile_money", "mobile_money", "bank", "credit"}
	kinds := []string{"refill", "refill", "refill", "sale", "exchange"}

	dates := make([]time.Time, s.opts.transactions)
	for i := range dates {
		dates[i] = s.faker.DateRange(start, now)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	sold, paid := 0, 0
	for _, at := range dates {
		cylinder := sales.CylinderTypes[s.faker.Number(0, len(sales.CylinderTypes)-1)]
		method := s.faker.RandomString(methods)
		txDate := at
		req := salesapp.CreateTransactionRequest{
			CustomerID:      customerIDs[s.faker.Number(0, len(customerIDs)-1)],
			CylinderType:    string(cylinder),
			TransactionType: s.faker.RandomString(kinds),
			Quantity:        s.faker.Number(1, 3),
			UnitPrice:       unitPrices[cylinder],
			PaymentMethod:   method,
			TransactionDate: &txDate,
		}
		if len(branchIDs) > 0 {
			b := branchIDs[s.faker.Number(0, len(branchIDs)-1)]
			req.BranchID = &b
		}
		tx, err := s.transactions.Create(ctx, operatorID, req)
		if err != nil {
			s.log.Warn("Skipped transaction", zap.Error(err))
			continue
		}
		sold++

		if method != "credit" || s.faker.Number(1, 3) != 1 {
			continue
		}
		paidAt := at.Add(time.Duration(s.faker.Number(1, 72)) * time.Hour)
		if paidAt.After(now) {
			paidAt = now
		}
		txID := tx.ID
		if _, err := s.payments.Create(ctx, operatorID, salesapp.CreatePaymentRequest{
			CustomerID:    tx.CustomerID,
			TransactionID: &txID,
			Amount:        tx.TotalAmount,
			Method:        s.faker.RandomString([]string{"cash", "mobile_money"}),
			Reference:     fmt.Sprintf("SEED-%06d", s.faker.Number(1, 999999)),
			PaidAt:        &paidAt,
		}); err != nil {
			s.log.Warn("Skipped payment", zap.Error(err))
			continue
		}
		paid++
	}
	return sold, paid
}
