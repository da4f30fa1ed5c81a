package memory

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lubricentro/backend/internal/domain"
	"lubricentro/backend/internal/store"
	"lubricentro/backend/internal/store/seed"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	productOrder    []string
	services        map[string]domain.Service
	serviceOrder    []string
	vehiclesByPlate map[string]domain.Vehicle
	customers       map[string]domain.Customer
	employees       map[string]domain.Employee
	suppliers       map[string]domain.Supplier
	orders          map[string]domain.ServiceOrder
	sales           map[string]domain.Sale
	registers       map[string]domain.CashRegister
	openRegisterID  string
	promotions      []domain.Promotion
	courses         []domain.Course
	company         domain.Company
	branches        map[string]domain.Branch
	usersByUsername map[string]domain.UserAccount
	auditLogs       []domain.AuditLog
}

// New returns an empty store.
func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		services:        make(map[string]domain.Service),
		vehiclesByPlate: make(map[string]domain.Vehicle),
		customers:       make(map[string]domain.Customer),
		employees:       make(map[string]domain.Employee),
		suppliers:       make(map[string]domain.Supplier),
		orders:          make(map[string]domain.ServiceOrder),
		sales:           make(map[string]domain.Sale),
		registers:       make(map[string]domain.CashRegister),
		promotions:      make([]domain.Promotion, 0, 16),
		branches:        make(map[string]domain.Branch),
		usersByUsername: make(map[string]domain.UserAccount),
		auditLogs:       make([]domain.AuditLog, 0, 128),
	}
}

// NewSeeded returns a store preloaded with the shop's demo catalog, vehicles and staff.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	for _, p := range seed.Products() {
		s.products[p.ID] = p
		s.productOrder = append(s.productOrder, p.ID)
	}
	for _, svc := range seed.Services() {
		s.services[svc.ID] = svc
		s.serviceOrder = append(s.serviceOrder, svc.ID)
	}
	for _, v := range seed.Vehicles() {
		s.vehiclesByPlate[plateKey(v.LicensePlate)] = v
	}
	for _, c := range seed.Customers(now) {
		s.customers[c.ID] = c
	}
	for _, e := range seed.Employees() {
		s.employees[e.ID] = e
	}
	for _, sup := range seed.Suppliers() {
		s.suppliers[sup.ID] = sup
	}

	s.courses = seed.Courses()
	s.company = seed.Company()
	s.usersByUsername = seedUsers(now)
	return s
}

// seedUsers creates the demo admin account. The password comes from SEED_ADMIN_PASSWORD.
func seedUsers(now time.Time) map[string]domain.UserAccount {
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		zap.L().Warn("using default demo admin password, set SEED_ADMIN_PASSWORD to override")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash seed password", zap.Error(err))
		return map[string]domain.UserAccount{}
	}
	return map[string]domain.UserAccount{
		"admin": {
			User: domain.User{
				Username:  "admin",
				Name:      "Administrador",
				Email:     "admin@lubricentro.local",
				Role:      domain.RoleAdmin,
				Active:    true,
				CreatedAt: now,
			},
			PasswordHash: string(hash),
		},
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		products = append(products, cloneProduct(s.products[id]))
	}
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := cloneProduct(product)
	return &copyProduct, nil
}

func (s *Store) SaveProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.ID) == "" || strings.TrimSpace(product.Name) == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		s.productOrder = append(s.productOrder, product.ID)
	}
	s.products[product.ID] = cloneProduct(product)
	saved := cloneProduct(product)
	return &saved, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	s.productOrder = slices.DeleteFunc(s.productOrder, func(candidate string) bool { return candidate == id })
	return nil
}

func (s *Store) DecrementStock(_ context.Context, qty map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStockLocked(qty); err != nil {
		return err
	}
	s.takeStockLocked(qty)
	return nil
}

func (s *Store) checkStockLocked(qty map[string]int) error {
	for id, n := range qty {
		product, exists := s.products[id]
		if !exists {
			return store.ErrNotFound
		}
		if n < 1 || product.Stock < n {
			return store.ErrValidation
		}
	}
	return nil
}

func (s *Store) takeStockLocked(qty map[string]int) {
	for id, n := range qty {
		product := s.products[id]
		product.Stock -= n
		s.products[id] = product
	}
}

func (s *Store) ListServices(_ context.Context) ([]domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	services := make([]domain.Service, 0, len(s.serviceOrder))
	for _, id := range s.serviceOrder {
		services = append(services, cloneService(s.services[id]))
	}
	return services, nil
}

func (s *Store) GetService(_ context.Context, id string) (*domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, exists := s.services[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyService := cloneService(svc)
	return &copyService, nil
}

func (s *Store) SaveService(_ context.Context, svc domain.Service) (*domain.Service, error) {
	if strings.TrimSpace(svc.ID) == "" || strings.TrimSpace(svc.Name) == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[svc.ID]; !exists {
		s.serviceOrder = append(s.serviceOrder, svc.ID)
	}
	s.services[svc.ID] = cloneService(svc)
	saved := cloneService(svc)
	return &saved, nil
}

func (s *Store) ListVehicles(_ context.Context) ([]domain.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicles := make([]domain.Vehicle, 0, len(s.vehiclesByPlate))
	for _, v := range s.vehiclesByPlate {
		vehicles = append(vehicles, v)
	}
	slices.SortFunc(vehicles, func(a, b domain.Vehicle) int {
		return strings.Compare(a.LicensePlate, b.LicensePlate)
	})
	return vehicles, nil
}

func (s *Store) GetVehicleByPlate(_ context.Context, plate string) (*domain.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vehicle, exists := s.vehiclesByPlate[plateKey(plate)]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &vehicle, nil
}

func (s *Store) CreateVehicle(_ context.Context, vehicle domain.Vehicle) (*domain.Vehicle, error) {
	key := plateKey(vehicle.LicensePlate)
	if key == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.vehiclesByPlate[key]; exists {
		return nil, store.ErrConflict
	}
	s.vehiclesByPlate[key] = vehicle
	return &vehicle, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int {
		if a.Name == b.Name {
			return strings.Compare(a.ID, b.ID)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return customers, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &customer, nil
}

func (s *Store) SaveCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(customer.ID) == "" || strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		employees = append(employees, cloneEmployee(e))
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		if a.Name == b.Name {
			return strings.Compare(a.ID, b.ID)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return employees, nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, exists := s.employees[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyEmployee := cloneEmployee(employee)
	return &copyEmployee, nil
}

func (s *Store) SaveEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	if strings.TrimSpace(employee.ID) == "" || strings.TrimSpace(employee.Name) == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.employees[employee.ID] = cloneEmployee(employee)
	saved := cloneEmployee(employee)
	return &saved, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employees[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.employees, id)
	return nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, supplier := range s.suppliers {
		suppliers = append(suppliers, cloneSupplier(supplier))
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		if a.Name == b.Name {
			return strings.Compare(a.ID, b.ID)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return suppliers, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySupplier := cloneSupplier(supplier)
	return &copySupplier, nil
}

func (s *Store) SaveSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if strings.TrimSpace(supplier.ID) == "" || strings.TrimSpace(supplier.Name) == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.suppliers[supplier.ID] = cloneSupplier(supplier)
	saved := cloneSupplier(supplier)
	return &saved, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliers[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.suppliers, id)
	return nil
}

func (s *Store) ListOrders(_ context.Context, status string) ([]domain.ServiceOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.ServiceOrder, 0, len(s.orders))
	for _, order := range s.orders {
		if status != "" && order.Status != status {
			continue
		}
		orders = append(orders, order)
	}
	slices.SortFunc(orders, func(a, b domain.ServiceOrder) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(a.ID, b.ID)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return orders, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (*domain.ServiceOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return &order, nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.ServiceOrder) (*domain.ServiceOrder, error) {
	if strings.TrimSpace(order.ID) == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return nil, store.ErrConflict
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	s.orders[order.ID] = order
	return &order, nil
}

func (s *Store) UpdateOrder(_ context.Context, order domain.ServiceOrder, expectedStatus string) (*domain.ServiceOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.orders[order.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if current.Status != expectedStatus {
		return nil, store.ErrInvalidState
	}
	s.orders[order.ID] = order
	return &order, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if strings.TrimSpace(sale.ID) == "" || len(sale.Items) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sales[sale.ID]; exists {
		return nil, store.ErrConflict
	}
	s.sales[sale.ID] = cloneSale(sale)
	saved := cloneSale(sale)
	return &saved, nil
}

func (s *Store) CommitSale(_ context.Context, commit store.SaleCommit) (*domain.Sale, error) {
	sale := commit.Sale
	if strings.TrimSpace(sale.ID) == "" || len(sale.Items) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if commit.Order != nil {
		current, exists := s.orders[commit.Order.ID]
		if !exists {
			return nil, store.ErrNotFound
		}
		if current.Status != commit.OrderFrom {
			return nil, store.ErrInvalidState
		}
	}
	if err := s.checkStockLocked(commit.Stock); err != nil {
		return nil, err
	}
	if _, exists := s.sales[sale.ID]; exists {
		return nil, store.ErrConflict
	}

	if commit.Order != nil {
		s.orders[commit.Order.ID] = *commit.Order
	}
	s.takeStockLocked(commit.Stock)
	s.sales[sale.ID] = cloneSale(sale)
	saved := cloneSale(sale)
	return &saved, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := cloneSale(sale)
	return &copySale, nil
}

func (s *Store) ListSales(_ context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if sale.Date.Before(from) || !sale.Date.Before(to) {
			continue
		}
		sales = append(sales, cloneSale(sale))
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.Date.Equal(b.Date) {
			return strings.Compare(a.ID, b.ID)
		}
		return a.Date.Compare(b.Date)
	})
	return sales, nil
}

func (s *Store) CreateRegister(_ context.Context, register domain.CashRegister) (*domain.CashRegister, error) {
	if strings.TrimSpace(register.ID) == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openRegisterID != "" {
		return nil, store.ErrConflict
	}
	s.registers[register.ID] = cloneRegister(register)
	if register.Status == domain.RegisterStatusOpen {
		s.openRegisterID = register.ID
	}
	saved := cloneRegister(register)
	return &saved, nil
}

func (s *Store) GetOpenRegister(_ context.Context) (*domain.CashRegister, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.openRegisterID == "" {
		return nil, store.ErrNotFound
	}
	register := cloneRegister(s.registers[s.openRegisterID])
	return &register, nil
}

func (s *Store) GetRegister(_ context.Context, id string) (*domain.CashRegister, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	register, exists := s.registers[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyRegister := cloneRegister(register)
	return &copyRegister, nil
}

func (s *Store) ListRegisters(_ context.Context, limit int) ([]domain.CashRegister, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registers := make([]domain.CashRegister, 0, len(s.registers))
	for _, register := range s.registers {
		registers = append(registers, cloneRegister(register))
	}
	slices.SortFunc(registers, func(a, b domain.CashRegister) int {
		return b.OpenedAt.Compare(a.OpenedAt)
	})
	if limit > 0 && len(registers) > limit {
		registers = registers[:limit]
	}
	return registers, nil
}

func (s *Store) SaveRegister(_ context.Context, register domain.CashRegister, expectedTransactions int) (*domain.CashRegister, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.registers[register.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if current.Status != domain.RegisterStatusOpen {
		return nil, store.ErrInvalidState
	}
	if len(current.Transactions) != expectedTransactions || len(register.Transactions) < expectedTransactions {
		return nil, store.ErrConflict
	}
	s.registers[register.ID] = cloneRegister(register)
	if register.Status != domain.RegisterStatusOpen && s.openRegisterID == register.ID {
		s.openRegisterID = ""
	}
	saved := cloneRegister(register)
	return &saved, nil
}

func (s *Store) CreatePromotion(_ context.Context, promo domain.Promotion) (*domain.Promotion, error) {
	if strings.TrimSpace(promo.ID) == "" || strings.TrimSpace(promo.Message) == "" || len(promo.CustomerIDs) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	promo.CustomerIDs = slices.Clone(promo.CustomerIDs)
	s.promotions = append(s.promotions, promo)
	return &promo, nil
}

func (s *Store) ListPromotions(_ context.Context) ([]domain.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	promos := make([]domain.Promotion, 0, len(s.promotions))
	for i := len(s.promotions) - 1; i >= 0; i-- {
		promo := s.promotions[i]
		promo.CustomerIDs = slices.Clone(promo.CustomerIDs)
		promos = append(promos, promo)
	}
	return promos, nil
}

func (s *Store) ListCourses(_ context.Context) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.courses), nil
}

func (s *Store) GetCompany(_ context.Context) (*domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	company := s.company
	return &company, nil
}

func (s *Store) SaveCompany(_ context.Context, company domain.Company) (*domain.Company, error) {
	if strings.TrimSpace(company.Name) == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.company = company
	return &company, nil
}

func (s *Store) ListBranches(_ context.Context) ([]domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branches := make([]domain.Branch, 0, len(s.branches))
	for _, branch := range s.branches {
		branches = append(branches, branch)
	}
	slices.SortFunc(branches, func(a, b domain.Branch) int {
		return strings.Compare(a.Name, b.Name)
	})
	return branches, nil
}

func (s *Store) SaveBranch(_ context.Context, branch domain.Branch) (*domain.Branch, error) {
	if strings.TrimSpace(branch.ID) == "" || strings.TrimSpace(branch.Name) == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.branches[branch.ID] = branch
	return &branch, nil
}

func (s *Store) DeleteBranch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.branches[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.branches, id)
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.PasswordHash) == "" {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) SetUserActive(_ context.Context, username string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Active = active
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	if strings.TrimSpace(entry.ID) == "" || strings.TrimSpace(entry.Action) == "" {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	logs := make([]domain.AuditLog, 0, min(limit, len(s.auditLogs)))
	for i := len(s.auditLogs) - 1; i >= 0 && len(logs) < limit; i-- {
		entry := s.auditLogs[i]
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

func plateKey(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func compareStrings(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneProduct(src domain.Product) domain.Product {
	src.Compatibility = slices.Clone(src.Compatibility)
	return src
}

func cloneService(src domain.Service) domain.Service {
	src.Includes = slices.Clone(src.Includes)
	return src
}

func cloneEmployee(src domain.Employee) domain.Employee {
	src.Specialties = slices.Clone(src.Specialties)
	return src
}

func cloneSupplier(src domain.Supplier) domain.Supplier {
	src.Products = slices.Clone(src.Products)
	return src
}

func cloneSale(src domain.Sale) domain.Sale {
	src.Items = slices.Clone(src.Items)
	if src.Vehicle != nil {
		vehicle := *src.Vehicle
		src.Vehicle = &vehicle
	}
	return src
}

func cloneRegister(src domain.CashRegister) domain.CashRegister {
	src.Transactions = slices.Clone(src.Transactions)
	if src.Transactions == nil {
		src.Transactions = []domain.CashTransaction{}
	}
	return src
}
