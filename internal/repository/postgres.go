package repository

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/merxpay/merx/internal/models"
	"github.com/merxpay/merx/pkg/logger"
)

// PostgresDB is the gorm-backed implementation of models.Repository.
type PostgresDB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

func NewPostgresDB(user, password, dbname, host string, port int, logger *logger.Logger) (models.Repository, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)

	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		// Needed so unique-constraint violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %s", err)
	}

	repo, err := NewWithDB(db, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return repo, nil
}

// NewWithDB builds the repository on an already-open gorm connection. Tests
// use this with an in-memory SQLite database.
func NewWithDB(db *gorm.DB, logger *logger.Logger) (*PostgresDB, error) {
	if err := db.AutoMigrate(&models.Product{}, &models.Payment{}, &models.CouponUse{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %s", err)
	}
	return &PostgresDB{Conn: db, logger: logger}, nil
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %s", err)
	}
	return sqlDB.Close()
}

func (db *PostgresDB) GetProduct(id string) (*models.Product, error) {
	var product models.Product
	if err := db.Conn.Where("id = ? AND active = ?", id, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %s", err)
	}

	return &product, nil
}

func (db *PostgresDB) SaveProduct(product *models.Product) error {
	if err := db.Conn.Save(product).Error; err != nil {
		return fmt.Errorf("failed to save product: %s", err)
	}
	return nil
}

func (db *PostgresDB) CreatePayment(payment *models.Payment) error {
	if err := db.Conn.Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %s", err)
	}
	return nil
}

// CreatePaymentWithCoupon inserts the payment and its coupon consumption in
// one transaction, so a failed payment insert rolls the coupon row back and
// the tuple stays usable for a retry.
func (db *PostgresDB) CreatePaymentWithCoupon(payment *models.Payment, use *models.CouponUse) error {
	return db.Conn.Transaction(func(tx *gorm.DB) error {
		if use != nil {
			if err := tx.Create(use).Error; err != nil {
				if isDuplicateKey(err) {
					return models.ErrCouponUsed
				}
				return fmt.Errorf("failed to record coupon use: %s", err)
			}
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %s", err)
		}
		return nil
	})
}

func (db *PostgresDB) GetPayment(id string) (*models.Payment, error) {
	var payment models.Payment
	if err := db.Conn.Where("id = ?", id).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %s", err)
	}

	return &payment, nil
}

func (db *PostgresDB) GetPaymentsByWallet(wallet string) ([]*models.Payment, error) {
	var payments []*models.Payment
	if err := db.Conn.Where("wallet = ?", wallet).Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to get payments by wallet: %s", err)
	}

	return payments, nil
}

// FinalizePaymentStatus transitions PENDING -> final as a single conditional
// update. Zero affected rows means another writer finalized first.
func (db *PostgresDB) FinalizePaymentStatus(id string, final models.PaymentStatus) (bool, error) {
	result := db.Conn.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Update("status", final)
	if result.Error != nil {
		return false, fmt.Errorf("failed to finalize payment status: %s", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// CompleteReward applies the authoritative on-chain reward figure, guarded so
// a reward can only ever be completed once.
func (db *PostgresDB) CompleteReward(id, rewardTxHash, rewardAmount string) (bool, error) {
	result := db.Conn.Model(&models.Payment{}).
		Where("id = ? AND reward_status <> ?", id, models.RewardCompleted).
		Updates(map[string]interface{}{
			"reward_status":  models.RewardCompleted,
			"reward_tx_hash": rewardTxHash,
			"reward_amount":  rewardAmount,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete reward: %s", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (db *PostgresDB) MarkRewardFailed(id string) (bool, error) {
	result := db.Conn.Model(&models.Payment{}).
		Where("id = ? AND reward_status <> ?", id, models.RewardCompleted).
		Updates(map[string]interface{}{
			"reward_status": models.RewardFailed,
			"retry_count":   gorm.Expr("retry_count + 1"),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark reward failed: %s", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (db *PostgresDB) ListFailedRewards(maxRetry int) ([]*models.Payment, error) {
	var payments []*models.Payment
	if err := db.Conn.
		Where("status = ? AND reward_status = ? AND retry_count < ?",
			models.PaymentSuccess, models.RewardFailed, maxRetry).
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list failed rewards: %s", err)
	}

	return payments, nil
}

func (db *PostgresDB) RecordCouponUse(use *models.CouponUse) error {
	if err := db.Conn.Create(use).Error; err != nil {
		if isDuplicateKey(err) {
			return models.ErrCouponUsed
		}
		return fmt.Errorf("failed to record coupon use: %s", err)
	}
	return nil
}

// isDuplicateKey recognizes a unique-constraint violation. TranslateError
// covers the gorm drivers; the string checks cover raw driver errors.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
