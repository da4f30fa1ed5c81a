package store

import (
	"context"
	"errors"
	"time"

	"lubricentro/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("conflict")
)

type Products interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SaveProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	// DecrementStock removes qty units per product id, all or nothing.
	DecrementStock(ctx context.Context, qty map[string]int) error
}

type Services interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
	GetService(ctx context.Context, id string) (*domain.Service, error)
	SaveService(ctx context.Context, service domain.Service) (*domain.Service, error)
}

type Vehicles interface {
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
	// GetVehicleByPlate matches the plate case-insensitively.
	GetVehicleByPlate(ctx context.Context, plate string) (*domain.Vehicle, error)
	CreateVehicle(ctx context.Context, vehicle domain.Vehicle) (*domain.Vehicle, error)
}

type Customers interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	SaveCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type Employees interface {
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	SaveEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

type Suppliers interface {
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	SaveSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error
}

type Orders interface {
	ListOrders(ctx context.Context, status string) ([]domain.ServiceOrder, error)
	GetOrder(ctx context.Context, id string) (*domain.ServiceOrder, error)
	CreateOrder(ctx context.Context, order domain.ServiceOrder) (*domain.ServiceOrder, error)
	// UpdateOrder succeeds only while the stored status still equals expectedStatus.
	UpdateOrder(ctx context.Context, order domain.ServiceOrder, expectedStatus string) (*domain.ServiceOrder, error)
}

// SaleCommit is the set of writes that complete a sale.
// Order is optional; when set it replaces the stored order only while the stored status equals OrderFrom.
type SaleCommit struct {
	Sale      domain.Sale
	Stock     map[string]int
	Order     *domain.ServiceOrder
	OrderFrom string
}

type Sales interface {
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	// CommitSale applies the order transition, the stock decrement and the sale insert together or not at all.
	CommitSale(ctx context.Context, commit SaleCommit) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error)
}

type CashRegisters interface {
	// CreateRegister fails with ErrConflict while another register is open.
	CreateRegister(ctx context.Context, register domain.CashRegister) (*domain.CashRegister, error)
	GetOpenRegister(ctx context.Context) (*domain.CashRegister, error)
	GetRegister(ctx context.Context, id string) (*domain.CashRegister, error)
	ListRegisters(ctx context.Context, limit int) ([]domain.CashRegister, error)
	// SaveRegister persists balance, status and transactions of a register that is still open in storage.
	// It fails with ErrConflict unless storage still holds exactly expectedTransactions transactions.
	SaveRegister(ctx context.Context, register domain.CashRegister, expectedTransactions int) (*domain.CashRegister, error)
}

type Promotions interface {
	CreatePromotion(ctx context.Context, promo domain.Promotion) (*domain.Promotion, error)
	ListPromotions(ctx context.Context) ([]domain.Promotion, error)
}

type Courses interface {
	ListCourses(ctx context.Context) ([]domain.Course, error)
}

type Settings interface {
	GetCompany(ctx context.Context) (*domain.Company, error)
	SaveCompany(ctx context.Context, company domain.Company) (*domain.Company, error)
	ListBranches(ctx context.Context) ([]domain.Branch, error)
	SaveBranch(ctx context.Context, branch domain.Branch) (*domain.Branch, error)
	DeleteBranch(ctx context.Context, id string) error
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	SetUserActive(ctx context.Context, username string, active bool) error
}

type Audit interface {
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}

type Repository interface {
	Products
	Services
	Vehicles
	Customers
	Employees
	Suppliers
	Orders
	Sales
	CashRegisters
	Promotions
	Courses
	Settings
	Audit
}
