package service

import (
	"context"

	"chinchiro/events"
	"chinchiro/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Get(ctx context.Context, userID int64) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) ApplyDelta(ctx context.Context, userID int64, delta int64) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

func (m *MockAccountRepository) ReverseDelta(ctx context.Context, userID int64, delta int64) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

func (m *MockAccountRepository) TotalEconomy(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Append(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByBatch(ctx context.Context, batchID string) ([]*models.Transaction, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	args := m.Called(ctx, batchID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// nopPublisher swallows events for tests that do not assert on them
type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock

	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	eventBus        EventPublisher
}

// SetRepositories wires the repositories the unit of work hands out. Events go
// to a no-op publisher unless one is set with SetEventBus.
func (m *MockUnitOfWork) SetRepositories(accountRepo AccountRepository, transactionRepo TransactionRepository) {
	m.accountRepo = accountRepo
	m.transactionRepo = transactionRepo
	if m.eventBus == nil {
		m.eventBus = nopPublisher{}
	}
}

// SetEventBus overrides the publisher for tests asserting on events.
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
