package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tashmeduni/navbat-back/internal/config"
	"github.com/tashmeduni/navbat-back/internal/db"
	"github.com/tashmeduni/navbat-back/internal/respond"
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"

	accessTTL  = 12 * time.Hour
	refreshTTL = 7 * 24 * time.Hour
)

// Identity is the authenticated principal carried in JWT claims and passed
// explicitly into every domain call. There is no ambient current user.
type Identity struct {
	ID       uint
	Role     string
	Username string // admins
	HemisID  string // students
}

// TokenPair holds a signed access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// IssueTokens signs an access and refresh token for the identity.
func IssueTokens(cfg *config.Config, id Identity) (TokenPair, error) {
	jwtSecret := []byte(cfg.JWTSecret)

	accessClaims := jwt.MapClaims{
		"sub":  float64(id.ID),
		"role": id.Role,
		"exp":  time.Now().Add(accessTTL).Unix(),
	}
	if id.Username != "" {
		accessClaims["username"] = id.Username
	}
	if id.HemisID != "" {
		accessClaims["hemisId"] = id.HemisID
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(jwtSecret)
	if err != nil {
		return TokenPair{}, err
	}

	refreshClaims := jwt.MapClaims{
		"sub":  float64(id.ID),
		"role": id.Role,
		"exp":  time.Now().Add(refreshTTL).Unix(),
		"type": "refresh",
	}
	if id.Username != "" {
		refreshClaims["username"] = id.Username
	}
	if id.HemisID != "" {
		refreshClaims["hemisId"] = id.HemisID
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(jwtSecret)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseToken validates a signed token and recovers the identity. When
// refresh is true the token must carry the refresh type claim.
func ParseToken(cfg *config.Config, tokenStr string, refresh bool) (Identity, error) {
	jwtSecret := []byte(cfg.JWTSecret)

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	if refresh != (claims["type"] == "refresh") {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok || (role != RoleAdmin && role != RoleStudent) {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	id := Identity{ID: uint(sub), Role: role}
	if v, ok := claims["username"].(string); ok {
		id.Username = v
	}
	if v, ok := claims["hemisId"].(string); ok {
		id.HemisID = v
	}
	return id, nil
}

// -------------------- GOOGLE LOGIN (admins) --------------------

var googleOauthConfig *oauth2.Config

func InitGoogle(cfg *config.Config) {
	googleOauthConfig = &oauth2.Config{
		RedirectURL:  cfg.GoogleRedirectURL,
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleSecret,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleLoginHandler godoc
// @Summary      Login with Google
// @Description  Redirects to the Google consent screen (admin accounts only)
// @Tags         auth
// @Success      307 {string} string "redirect"
// @Router       /auth/google/login [get]
func GoogleLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		url := googleOauthConfig.AuthCodeURL("state")
		c.Redirect(http.StatusTemporaryRedirect, url)
	}
}

// GoogleCallbackHandler exchanges the code, resolves the admin by email and
// issues a token pair. Unknown emails are rejected; Google sign-in never
// creates accounts.
// @Summary      Google callback
// @Tags         auth
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Router       /auth/google/callback [get]
func GoogleCallbackHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		token, err := googleOauthConfig.Exchange(context.Background(), code)
		if err != nil {
			respond.Fail(c, http.StatusBadRequest, "Failed to exchange token")
			return
		}

		resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
		if err != nil {
			respond.Fail(c, http.StatusBadRequest, "Failed to get user info")
			return
		}
		defer resp.Body.Close()

		var userInfo struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
			respond.Fail(c, http.StatusBadRequest, "Failed to parse user info")
			return
		}

		admin, err := db.GetAdminByEmail(c.Request.Context(), userInfo.Email)
		if err != nil {
			respond.Fail(c, http.StatusInternalServerError, "Failed to look up admin")
			return
		}
		if admin == nil {
			respond.Fail(c, http.StatusForbidden, "No admin account for this Google email")
			return
		}

		pair, err := IssueTokens(cfg, Identity{ID: admin.ID, Role: RoleAdmin, Username: admin.Username})
		if err != nil {
			log.Println("token issue failed:", err)
			respond.Fail(c, http.StatusInternalServerError, "Failed to issue token")
			return
		}

		respond.OK(c, gin.H{
			"token":        pair.AccessToken,
			"refreshToken": pair.RefreshToken,
			"id":           admin.ID,
			"username":     admin.Username,
			"fullName":     admin.FullName,
		})
	}
}
