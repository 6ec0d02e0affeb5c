package auth

import (
	"savanna-backend/internal/domain"
	"savanna-backend/internal/pkg/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginInput for login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionOperatorShape is the object stored in session and returned by /me.
type SessionOperatorShape struct {
	OperatorID string `json:"operator_id"`
	Fullname   string `json:"fullname"`
	Email      string `json:"email"`
}

// OperatorFinder abstracts operator lookup by email+password (GORM in
// production, test doubles elsewhere).
type OperatorFinder interface {
	FindByEmailAndPassword(email, password string) (*domain.Operator, error)
}

// GormOperatorFinder implements OperatorFinder using GORM and bcrypt.
type GormOperatorFinder struct{ DB *gorm.DB }

func (g *GormOperatorFinder) FindByEmailAndPassword(email, password string) (*domain.Operator, error) {
	return LoginOperator(g.DB, LoginInput{Email: email, Password: password})
}

// LoginOperator finds the operator by email and verifies the password.
func LoginOperator(db *gorm.DB, input LoginInput) (*domain.Operator, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	if !validation.IsValidEmail(input.Email) {
		return nil, ErrInvalidEmail
	}
	var op domain.Operator
	if err := db.Where("email = ?", input.Email).First(&op).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if op.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &op, nil
}

// VerifyOperator validates the session payload and returns the /me shape.
func VerifyOperator(sessionUser interface{}) (*SessionOperatorShape, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	operatorID, _ := m["operator_id"].(string)
	if operatorID == "" {
		return nil, ErrNotAuthenticated
	}
	return &SessionOperatorShape{
		OperatorID: operatorID,
		Fullname:   str(m["fullname"]),
		Email:      str(m["email"]),
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
