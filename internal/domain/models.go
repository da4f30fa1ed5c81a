package domain

import "time"

const (
	ProductTypeOil       = "oil"
	ProductTypeOilFilter = "oilFilter"
	ProductTypeAirFilter = "airFilter"
	ProductTypeOther     = "other"
)

const (
	QualityEconomic = "economic"
	QualityStandard = "standard"
	QualityPremium  = "premium"
)

// QualityTiers is the fixed order in which packages are offered.
var QualityTiers = []string{QualityEconomic, QualityStandard, QualityPremium}

type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Brand         string   `json:"brand"`
	Type          string   `json:"type"`
	Price         int64    `json:"price"`
	Stock         int      `json:"stock"`
	Quality       string   `json:"quality"`
	Compatibility []string `json:"compatibility,omitempty"`
}

type ProductUpdateRequest struct {
	Name          *string   `json:"name,omitempty"`
	Brand         *string   `json:"brand,omitempty"`
	Type          *string   `json:"type,omitempty"`
	Price         *int64    `json:"price,omitempty"`
	Stock         *int      `json:"stock,omitempty"`
	Quality       *string   `json:"quality,omitempty"`
	Compatibility *[]string `json:"compatibility,omitempty"`
}

type BulkPriceAdjustmentRequest struct {
	ProductIDs []string `json:"product_ids"`
	Mode       string   `json:"mode"`
	Value      float64  `json:"value"`
}

const (
	PriceAdjustPercentage = "percentage"
	PriceAdjustFixed      = "fixed"
)

const (
	ServiceTypeFull       = "full"
	ServiceTypeOil        = "oil"
	ServiceTypeInspection = "inspection"
)

type Service struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Duration    int      `json:"duration"`
	Type        string   `json:"type"`
	Includes    []string `json:"includes"`
}

type Vehicle struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Year         string `json:"year"`
	LicensePlate string `json:"license_plate"`
	EngineType   string `json:"engine_type,omitempty"`
	OilType      string `json:"oil_type,omitempty"`
}

// CompatibilityKey is the "{brand} {model}" string matched against product compatibility lists.
func (v Vehicle) CompatibilityKey() string {
	return v.Brand + " " + v.Model
}

type ServicePackage struct {
	Type      string   `json:"type"`
	Oil       *Product `json:"oil,omitempty"`
	OilFilter *Product `json:"oil_filter,omitempty"`
	AirFilter *Product `json:"air_filter,omitempty"`
	Total     int64    `json:"total"`
}

type PackageQuoteRequest struct {
	ServiceID    string `json:"service_id"`
	LicensePlate string `json:"license_plate"`
}

type PackageQuote struct {
	Service  Service          `json:"service"`
	Vehicle  Vehicle          `json:"vehicle"`
	Packages []ServicePackage `json:"packages"`
}

const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusBilled     = "billed"
)

type ServiceOrder struct {
	ID               string         `json:"id"`
	Vehicle          Vehicle        `json:"vehicle"`
	Service          Service        `json:"service"`
	ServicePackage   ServicePackage `json:"service_package"`
	Status           string         `json:"status"`
	StartTime        *time.Time     `json:"start_time,omitempty"`
	EndTime          *time.Time     `json:"end_time,omitempty"`
	AssignedEmployee *Employee      `json:"assigned_employee,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

type ServiceOrderCreateRequest struct {
	LicensePlate string `json:"license_plate"`
	ServiceID    string `json:"service_id"`
	PackageType  string `json:"package_type"`
	Notes        string `json:"notes"`
}

type ServiceOrderStartRequest struct {
	EmployeeID string `json:"employee_id"`
}

const (
	ItemTypeProduct = "product"
	ItemTypeService = "service"
)

type CartLine struct {
	ItemID     string `json:"item_id"`
	Type       string `json:"type"`
	Quantity   int    `json:"quantity"`
	ListPrice  int64  `json:"list_price"`
	FinalPrice int64  `json:"final_price"`
}

type CartTotals struct {
	ListTotal  int64 `json:"list_total"`
	Discount   int64 `json:"discount"`
	FinalTotal int64 `json:"final_total"`
}

type SaleCheckoutRequest struct {
	Lines         []CartLine `json:"lines"`
	CustomerID    string     `json:"customer_id"`
	EmployeeID    string     `json:"employee_id"`
	PaymentMethod string     `json:"payment_method"`
}

type CartQuoteRequest struct {
	Lines []CartLine `json:"lines"`
}

type CartQuoteResponse struct {
	Lines  []CartLine `json:"lines"`
	Totals CartTotals `json:"totals"`
}

const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

// PaymentMethods lists the accepted payment methods in report order.
var PaymentMethods = []string{PaymentCash, PaymentCard, PaymentTransfer}

const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
)

type SaleItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id,omitempty"`
	ServiceID string `json:"service_id,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Subtotal  int64  `json:"subtotal"`
}

type Sale struct {
	ID             string     `json:"id"`
	Date           time.Time  `json:"date"`
	Items          []SaleItem `json:"items"`
	Total          int64      `json:"total"`
	Discount       float64    `json:"discount"`
	EmployeeID     string     `json:"employee_id"`
	Type           string     `json:"type"`
	Vehicle        *Vehicle   `json:"vehicle,omitempty"`
	PaymentMethod  string     `json:"payment_method"`
	ServiceOrderID string     `json:"service_order_id,omitempty"`
	CustomerID     string     `json:"customer_id,omitempty"`
	Status         string     `json:"status"`
}

type BillingLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type BillingRequest struct {
	AdditionalProducts []BillingLine `json:"additional_products"`
	PaymentMethod      string        `json:"payment_method"`
	DiscountPercent    float64       `json:"discount_percent"`
}

type BillingResponse struct {
	Sale         Sale         `json:"sale"`
	ServiceOrder ServiceOrder `json:"service_order"`
}

const (
	RegisterStatusOpen   = "open"
	RegisterStatusClosed = "closed"
)

const (
	CashIncome  = "income"
	CashExpense = "expense"
)

type CashTransaction struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description"`
	PaymentMethod string    `json:"payment_method"`
	SaleID        string    `json:"sale_id,omitempty"`
}

type CashRegister struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	OpenedAt      time.Time         `json:"opened_at"`
	ClosedAt      *time.Time        `json:"closed_at,omitempty"`
	InitialAmount int64             `json:"initial_amount"`
	CurrentAmount int64             `json:"current_amount"`
	Transactions  []CashTransaction `json:"transactions"`
}

type CashRegisterOpenRequest struct {
	InitialAmount int64 `json:"initial_amount"`
}

type CashTransactionRequest struct {
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	PaymentMethod string `json:"payment_method"`
}

type PaymentMethodSummary struct {
	PaymentMethod string `json:"payment_method" csv:"payment_method"`
	Income        int64  `json:"income" csv:"income"`
	Expense       int64  `json:"expense" csv:"expense"`
	Transactions  int    `json:"transactions" csv:"transactions"`
}

type ClosingReport struct {
	RegisterID    string                 `json:"register_id"`
	Status        string                 `json:"status"`
	OpenedAt      time.Time              `json:"opened_at"`
	ClosedAt      *time.Time             `json:"closed_at,omitempty"`
	InitialAmount int64                  `json:"initial_amount"`
	CurrentAmount int64                  `json:"current_amount"`
	TotalIncome   int64                  `json:"total_income"`
	TotalExpense  int64                  `json:"total_expense"`
	ByMethod      []PaymentMethodSummary `json:"by_method"`
	Transactions  []CashTransaction      `json:"transactions"`
}

type Customer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	LastServiceDate time.Time `json:"last_service_date"`
	Vehicle         Vehicle   `json:"vehicle"`
}

type CustomerMessageRequest struct {
	Message string `json:"message"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Schedule struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Employee struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Position    string    `json:"position"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	StartDate   time.Time `json:"start_date"`
	Status      string    `json:"status"`
	Specialties []string  `json:"specialties"`
	Schedule    Schedule  `json:"schedule"`
	Salary      int64     `json:"salary"`
}

type Supplier struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ContactPerson string     `json:"contact_person"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Address       string     `json:"address"`
	Products      []string   `json:"products"`
	PaymentTerms  string     `json:"payment_terms"`
	Status        string     `json:"status"`
	LastOrderDate *time.Time `json:"last_order_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

type Promotion struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	CustomerIDs []string  `json:"customer_ids"`
	IdleDays    int       `json:"idle_days"`
	SentAt      time.Time `json:"sent_at"`
}

type PromotionSendRequest struct {
	Message     string   `json:"message"`
	CustomerIDs []string `json:"customer_ids"`
}

type Course struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    string  `json:"duration"`
	Level       string  `json:"level"`
	Instructor  string  `json:"instructor"`
	Rating      float64 `json:"rating"`
	Enrolled    int     `json:"enrolled"`
	Image       string  `json:"image"`
}

type Company struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type Branch struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Manager string `json:"manager"`
}

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

type UserCreateRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type User struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is the persistence model; PasswordHash never leaves the service.
type UserAccount struct {
	User
	PasswordHash string
}

type DashboardMetrics struct {
	Date            string `json:"date"`
	SalesCount      int    `json:"sales_count"`
	SalesTotal      int64  `json:"sales_total"`
	AverageTicket   int64  `json:"average_ticket"`
	PendingOrders   int    `json:"pending_orders"`
	ActiveOrders    int    `json:"active_orders"`
	RegisterStatus  string `json:"register_status"`
	RegisterBalance int64  `json:"register_balance"`
}

const (
	SearchKindCustomer = "customer"
	SearchKindVehicle  = "vehicle"
	SearchKindService  = "service"
)

type SearchResult struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// Actor identifies who performed an operation in audit entries.
type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
