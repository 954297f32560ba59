package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"contratos/internal/mailer"
	"contratos/internal/workflow"
	"contratos/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
)

// CognitoAPI is the part of the Cognito client the auth handlers use.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.ConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ConfirmSignUpOutput, error)
}

// IdentityStore mirrors Cognito users into the users table.
type IdentityStore interface {
	UpsertIdentity(ctx context.Context, userID, email, givenName, familyName string, role types.UserRole) error
}

// Workflow is the set of lifecycle operations the API exposes.
type Workflow interface {
	ListProjects(ctx context.Context, userID string) ([]*types.ContractualProject, error)
	UpdateProject(ctx context.Context, userID, projectID string, in workflow.ProjectInput) (*types.ContractualProject, error)
	ListTemplates(ctx context.Context, userID, projectID string) ([]*types.Template, error)
	ListContracts(ctx context.Context, userID, projectID string, q workflow.ListQuery) (types.Page[*types.Contract], error)
	CreateContract(ctx context.Context, userID string, in workflow.CreateContractInput) (*types.Contract, types.BatchReport, error)
	RenameContract(ctx context.Context, userID, contractID, name string) error
	ReplaceDraft(ctx context.Context, userID, contractID string, draft *workflow.Upload) (*types.Contract, error)
	DeleteContract(ctx context.Context, userID, contractID string) error
	AddRequiredDocument(ctx context.Context, userID, contractID string, in workflow.RequirementInput) (*types.RequiredDocument, types.BatchReport, error)
	RemoveRequiredDocument(ctx context.Context, userID, contractID, requiredDocumentID string) error
	InviteMember(ctx context.Context, userID, contractID string, in workflow.InviteInput) (*types.ContractMember, types.BatchReport, error)
	ListMembers(ctx context.Context, userID, contractID string, q workflow.ListQuery) (types.Page[*workflow.MemberSummary], error)
	BackgroundCheckDocument(ctx context.Context, userID, memberID string, kind workflow.BackgroundKind) (string, error)
	ExtendContract(ctx context.Context, userID, memberID string, in workflow.ExtensionInput) (*types.ContractExtension, types.BatchReport, error)
	TerminateMember(ctx context.Context, userID, memberID string, document *workflow.Upload) error
	SignAsContratante(ctx context.Context, userID, memberID string) (types.BatchReport, error)

	ListMyContracts(ctx context.Context, userID string, q workflow.ListQuery) (types.Page[*workflow.MyContract], error)
	AcceptInvitation(ctx context.Context, userID, memberID string) (types.BatchReport, error)
	UploadPrecontractual(ctx context.Context, userID, memberID, requiredDocumentID string, up *workflow.Upload) (string, error)
	UploadContractual(ctx context.Context, userID, memberID, requiredDocumentID, month string, up *workflow.Upload) (string, error)
	UploadExtraDocument(ctx context.Context, userID, memberID string, in workflow.ExtraDocumentInput) (*types.ContractualExtraDocument, error)
	DeleteExtraDocument(ctx context.Context, userID, memberID, extraID string) (types.BatchReport, error)
	Sign(ctx context.Context, userID, memberID string, signature *workflow.Upload) (types.BatchReport, error)
	RequestTermination(ctx context.Context, userID, memberID string, document *workflow.Upload) error

	MemberOverview(ctx context.Context, userID, memberID string) (*workflow.MemberOverview, error)
	DocumentPreviewURL(ctx context.Context, userID, memberID, stored string) (string, error)
	SubmitContactForm(ctx context.Context, msg mailer.ContactMessage) error
}

type Service struct {
	logger   *logrus.Logger
	config   *types.Config
	workflow Workflow
	users    IdentityStore

	cognitoClient CognitoAPI
	cookie        *securecookie.SecureCookie

	jwksCache *jwk.Cache
	jwksURL   string
	// verifyToken turns an access token into the caller's identity.
	verifyToken func(ctx context.Context, accessToken string) (identity, error)

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	wf Workflow,
	users IdentityStore,
	cognitoClient CognitoAPI,
	jwkCache *jwk.Cache,
	jwksURL string,
) *Service {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger:        logger,
		config:        config,
		workflow:      wf,
		users:         users,
		cognitoClient: cognitoClient,
		cookie:        securecookie.New(hashKey, blockKey),

		jwksCache: jwkCache,
		jwksURL:   jwksURL,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}
	s.verifyToken = s.verifyJWKS

	s.buildRouter(mux)
	// unmatched paths never reach route middleware, so the redirect wraps the mux
	s.server.Handler = s.StripTrailingSlash(mux)

	return s
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mostly for tests.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.RequestID)
	r.Use(s.LoggingMiddleware)

	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errRouteNotFound)
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, types.Envelope{Error: "método no permitido"})
	})

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.HandleFunc("/api/contact", s.handleContact, http.MethodPost)

	r.HandleFunc("/register", s.handlePostRegister, http.MethodPost)
	r.HandleFunc("/register/confirm", s.handlePostRegisterConfirm, http.MethodPost)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/me", s.handleMe, http.MethodGet)

		r.HandleFunc("/api/contratante/projects", s.handleListProjects, http.MethodGet)
		r.HandleFunc("/api/contratante/projects/:projectID", s.handleUpdateProject, http.MethodPatch)
		r.HandleFunc("/api/contratante/projects/:projectID/contracts", s.handleListContracts, http.MethodGet)
		r.HandleFunc("/api/contratante/projects/:projectID/templates", s.handleListTemplates, http.MethodGet)
		r.HandleFunc("/api/contratante/contracts", s.handleCreateContract, http.MethodPost)
		r.HandleFunc("/api/contratante/contracts/:contractID", s.handleRenameContract, http.MethodPatch)
		r.HandleFunc("/api/contratante/contracts/:contractID", s.handleDeleteContract, http.MethodDelete)
		r.HandleFunc("/api/contratante/contracts/:contractID/draft", s.handleReplaceDraft, http.MethodPut)
		r.HandleFunc("/api/contratante/contracts/:contractID/required-documents", s.handleAddRequiredDocument, http.MethodPost)
		r.HandleFunc("/api/contratante/contracts/:contractID/required-documents/:requiredDocumentID", s.handleRemoveRequiredDocument, http.MethodDelete)
		r.HandleFunc("/api/contratante/contracts/:contractID/members", s.handleListMembers, http.MethodGet)
		r.HandleFunc("/api/contratante/contracts/:contractID/members", s.handleInviteMember, http.MethodPost)
		r.HandleFunc("/api/contratante/members/:memberID", s.handleMemberOverview, http.MethodGet)
		r.HandleFunc("/api/contratante/members/:memberID/background/:kind", s.handleBackgroundCheck, http.MethodGet)
		r.HandleFunc("/api/contratante/members/:memberID/extensions", s.handleExtendContract, http.MethodPost)
		r.HandleFunc("/api/contratante/members/:memberID/termination", s.handleTerminateMember, http.MethodPost)
		r.HandleFunc("/api/contratante/members/:memberID/sign", s.handleSignAsContratante, http.MethodPost)
		r.HandleFunc("/api/contratante/members/:memberID/preview", s.handlePreview, http.MethodGet)

		r.HandleFunc("/api/contratista/contracts", s.handleListMyContracts, http.MethodGet)
		r.HandleFunc("/api/contratista/members/:memberID", s.handleMemberOverview, http.MethodGet)
		r.HandleFunc("/api/contratista/members/:memberID/accept", s.handleAcceptInvitation, http.MethodPost)
		r.HandleFunc("/api/contratista/members/:memberID/precontractual/:requiredDocumentID", s.handleUploadPrecontractual, http.MethodPut)
		r.HandleFunc("/api/contratista/members/:memberID/contractual/:requiredDocumentID", s.handleUploadContractual, http.MethodPut)
		r.HandleFunc("/api/contratista/members/:memberID/extras", s.handleUploadExtra, http.MethodPost)
		r.HandleFunc("/api/contratista/members/:memberID/extras/:extraID", s.handleDeleteExtra, http.MethodDelete)
		r.HandleFunc("/api/contratista/members/:memberID/sign", s.handleSign, http.MethodPost)
		r.HandleFunc("/api/contratista/members/:memberID/termination", s.handleRequestTermination, http.MethodPost)
		r.HandleFunc("/api/contratista/members/:memberID/preview", s.handlePreview, http.MethodGet)
	})
}

func (s *Service) userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(contextKeyUserID).(string)
	if !ok {
		return "", fmt.Errorf("user id not found in context")
	}
	return userID, nil
}
