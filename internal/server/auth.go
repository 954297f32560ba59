package server

import (
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"contratos/internal"
	"contratos/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type loginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME": strings.TrimSpace(req.Email),
			"PASSWORD": req.Password,
		},
	}

	resp, err := s.cognitoClient.InitiateAuth(r.Context(), input)
	if err != nil {
		// NotAuthorizedException, UserNotConfirmedException, etc.
		s.logger.WithError(err).Info("login rejected")

		var notConfirmed *ctypes.UserNotConfirmedException
		if errors.As(err, &notConfirmed) {
			s.writeJSON(w, http.StatusUnauthorized, types.Envelope{Error: "confirma tu cuenta antes de iniciar sesión"})
			return
		}
		s.writeJSON(w, http.StatusUnauthorized, types.Envelope{Error: "credenciales inválidas"})
		return
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		s.writeJSON(w, http.StatusUnauthorized, types.Envelope{Error: "no se pudo iniciar sesión"})
		return
	}

	accessToken := aws.ToString(resp.AuthenticationResult.AccessToken)
	expiresIn := int(resp.AuthenticationResult.ExpiresIn)

	encryptedToken, err := s.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, accessToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   expiresIn,
		Path:     "/",
	})

	data := map[string]any{"expiresIn": expiresIn}

	// login after an unauthenticated visit returns where the user was going
	if redirectCookie, err := r.Cookie(internal.COOKIE_REDIRECT_NAME); err == nil {
		data["redirect"] = redirectCookie.Value
		s.clearCookie(w, internal.COOKIE_REDIRECT_NAME)
	}

	s.writeData(w, http.StatusOK, data)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	s.clearCookie(w, internal.COOKIE_ACCESS_TOKEN_NAME)
	s.writeData(w, http.StatusOK, nil)
}

func (s *Service) setRedirectCookie(w http.ResponseWriter, path string, age time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    path,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(age.Seconds()),
	})
}

func (s *Service) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

type registerRequest struct {
	GivenName       string `form:"givenName" json:"givenName"`
	FamilyName      string `form:"familyName" json:"familyName"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword"`
	Role            string `form:"role" json:"role"`
}

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	req.GivenName = strings.TrimSpace(req.GivenName)
	req.FamilyName = strings.TrimSpace(req.FamilyName)
	req.Email = strings.TrimSpace(req.Email)

	if verr := validateRegisterInput(req); verr.HasErrors() {
		s.writeError(w, r, verr)
		return
	}

	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(s.config.CognitoClientID),
		Username: aws.String(req.Email), // use email as username
		Password: aws.String(req.Password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(req.Email)},
			{Name: aws.String("given_name"), Value: aws.String(req.GivenName)},
			{Name: aws.String("family_name"), Value: aws.String(req.FamilyName)},
		},
	}

	out, err := s.cognitoClient.SignUp(ctx, input)
	if err != nil {
		s.logger.WithError(err).Error("failed to signup user")
		msg, fields := s.mapCognitoSignUpError(err)
		s.writeJSON(w, http.StatusBadRequest, types.Envelope{Error: msg, Fields: fields})
		return
	}

	userID := aws.ToString(out.UserSub)
	if err := s.users.UpsertIdentity(ctx, userID, req.Email, req.GivenName, req.FamilyName, types.UserRole(req.Role)); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusCreated, map[string]any{
		"userId":    userID,
		"confirmed": out.UserConfirmed,
	})
}

type confirmRequest struct {
	Email string `form:"email" json:"email"`
	Code  string `form:"code" json:"code"`
}

func (s *Service) handlePostRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	input := &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(s.config.CognitoClientID),
		Username:         aws.String(strings.TrimSpace(req.Email)),
		ConfirmationCode: aws.String(strings.TrimSpace(req.Code)),
	}

	_, err := s.cognitoClient.ConfirmSignUp(r.Context(), input)
	if err != nil {
		s.logger.WithError(err).Error("failed to confirm user signup")

		var codeMismatch *ctypes.CodeMismatchException
		if errors.As(err, &codeMismatch) {
			s.writeError(w, r, types.NewValidationError("code", "código de confirmación inválido"))
			return
		}
		s.writeJSON(w, http.StatusBadRequest, types.Envelope{Error: "no se pudo confirmar la cuenta, intenta de nuevo"})
		return
	}

	s.writeData(w, http.StatusOK, nil)
}

var (
	hasUpperReg  = regexp.MustCompile(`[A-Z]`)
	hasLowerReg  = regexp.MustCompile(`[a-z]`)
	hasDigitReg  = regexp.MustCompile(`[0-9]`)
	hasSymbolReg = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func validateRegisterInput(req registerRequest) *types.ValidationError {
	verr := &types.ValidationError{}

	if req.GivenName == "" {
		verr.Add("givenName", "el nombre es obligatorio")
	}

	if req.FamilyName == "" {
		verr.Add("familyName", "el apellido es obligatorio")
	}

	if req.Email == "" {
		verr.Add("email", "el correo es obligatorio")
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		verr.Add("email", "ingresa un correo válido")
	}

	if req.Password != req.ConfirmPassword {
		verr.Add("confirmPassword", "las contraseñas no coinciden")
	}

	hasUpper := hasUpperReg.MatchString(req.Password)
	hasLower := hasLowerReg.MatchString(req.Password)
	hasDigit := hasDigitReg.MatchString(req.Password)
	hasSymbol := hasSymbolReg.MatchString(req.Password)

	if len(req.Password) < 12 || !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		verr.Add("password", "mínimo 12 caracteres con mayúscula, minúscula, número y símbolo")
	}

	switch types.UserRole(req.Role) {
	case types.UserRoleContratante, types.UserRoleContratista:
	default:
		verr.Add("role", "elige contratante o contratista")
	}

	return verr
}

func (s *Service) mapCognitoSignUpError(err error) (string, map[string]string) {
	fieldErrs := map[string]string{}

	var invalidPw *ctypes.InvalidPasswordException
	if errors.As(err, &invalidPw) {
		fieldErrs["password"] = "mínimo 12 caracteres con mayúscula, minúscula, número y símbolo"
		return "revisa los campos marcados", fieldErrs
	}

	var userExists *ctypes.UsernameExistsException
	if errors.As(err, &userExists) {
		fieldErrs["email"] = "ya existe una cuenta con este correo"
		return "intenta iniciar sesión", fieldErrs
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return "algunos datos no son válidos", fieldErrs
	}

	s.logger.WithError(err).Error("unhandled cognito signup error")

	return "no se pudo crear la cuenta, intenta más tarde", fieldErrs
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.writeError(w, r, errUnauthenticated)
		return
	}
	email, _ := r.Context().Value(contextKeyEmail).(string)

	s.writeData(w, http.StatusOK, map[string]string{"userId": userID, "email": email})
}
