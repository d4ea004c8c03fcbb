package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"Bt1Clip/core/auth"
	"Bt1Clip/logger"
	"Bt1Clip/model"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"` // 可以是用户名或邮箱
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// LoginHandler handles user login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username/Email and password are required", http.StatusBadRequest)
		return
	}

	// 查询用户 - 支持用户名或邮箱登录
	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetByEmail(r.Context(), req.Username)
	} else {
		user, err = h.userRepo.GetByUsername(r.Context(), req.Username)
	}

	if err != nil {
		logger.Error("查询用户失败", logger.ErrorField(err), logger.String("username", req.Username))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if user == nil {
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("密码验证失败", logger.String("username", req.Username))
		http.Error(w, "Invalid username/email or password", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("生成 Token 失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("登录成功", logger.String("username", user.Username))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// RegisterHandler handles user registration requests
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" || req.Email == "" {
		http.Error(w, "Username, password and email are required", http.StatusBadRequest)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}

	if err := h.userRepo.Create(r.Context(), user); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate entry") {
			http.Error(w, "Username or email already exists", http.StatusConflict)
		} else {
			logger.Error("创建用户失败", logger.ErrorField(err))
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
		}
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	logger.Info("注册成功", logger.String("username", user.Username))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
