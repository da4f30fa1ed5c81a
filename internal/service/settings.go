package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"lubricentro/backend/internal/domain"
)

const minPasswordLength = 8

func (s *Service) GetCompany(ctx context.Context) (domain.Company, error) {
	company, err := s.repo.GetCompany(ctx)
	if err != nil {
		return domain.Company{}, err
	}
	return *company, nil
}

func (s *Service) UpdateCompany(ctx context.Context, req domain.Company) (domain.Company, error) {
	company := domain.Company{
		Name:    strings.TrimSpace(req.Name),
		TaxID:   strings.TrimSpace(req.TaxID),
		Address: strings.TrimSpace(req.Address),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
	}
	if company.Name == "" {
		return domain.Company{}, validationf("company name is required")
	}
	if company.Email != "" {
		if _, err := mail.ParseAddress(company.Email); err != nil {
			return domain.Company{}, validationf("invalid company email")
		}
	}

	saved, err := s.repo.SaveCompany(ctx, company)
	if err != nil {
		return domain.Company{}, err
	}
	s.logAudit(ctx, "company_update", "company", "1", saved.Name)
	return *saved, nil
}

func (s *Service) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	return s.repo.ListBranches(ctx)
}

// SaveBranch creates a branch when ID is empty, otherwise replaces it.
func (s *Service) SaveBranch(ctx context.Context, req domain.Branch) (domain.Branch, error) {
	branch := domain.Branch{
		ID:      strings.TrimSpace(req.ID),
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
		Phone:   strings.TrimSpace(req.Phone),
		Manager: strings.TrimSpace(req.Manager),
	}
	if branch.Name == "" || branch.Address == "" {
		return domain.Branch{}, validationf("branch name and address are required")
	}
	action := "branch_update"
	if branch.ID == "" {
		branch.ID = s.ids.New("branch")
		action = "branch_create"
	}

	saved, err := s.repo.SaveBranch(ctx, branch)
	if err != nil {
		return domain.Branch{}, err
	}
	s.logAudit(ctx, action, "branch", saved.ID, saved.Name)
	return *saved, nil
}

func (s *Service) DeleteBranch(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteBranch(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "branch_delete", "branch", id, "")
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	accounts, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, account.User)
	}
	return users, nil
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (domain.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	role := strings.TrimSpace(req.Role)
	if username == "" || strings.TrimSpace(req.Name) == "" {
		return domain.User{}, validationf("username and name are required")
	}
	if role != domain.RoleAdmin && role != domain.RoleManager && role != domain.RoleEmployee {
		return domain.User{}, validationf("role must be admin, manager or employee")
	}
	if len(req.Password) < minPasswordLength {
		return domain.User{}, validationf("password must have at least %d characters", minPasswordLength)
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return domain.User{}, validationf("invalid email")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		Username:  username,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Role:      role,
		Active:    true,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateUser(ctx, domain.UserAccount{User: user, PasswordHash: string(hash)}); err != nil {
		return domain.User{}, err
	}
	s.logAudit(ctx, "user_create", "user", user.Username, "role="+user.Role)
	return user, nil
}

func (s *Service) SetUserActive(ctx context.Context, username string, active bool) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if err := s.repo.SetUserActive(ctx, username, active); err != nil {
		return err
	}
	s.logAudit(ctx, "user_set_active", "user", username, fmt.Sprintf("active=%t", active))
	return nil
}
