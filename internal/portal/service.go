package portal

import (
	"context"
	"sort"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cxcontrol/cxcontrol/internal/clients"
	"github.com/cxcontrol/cxcontrol/internal/ledger"
	"github.com/cxcontrol/cxcontrol/internal/money"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
	"github.com/cxcontrol/cxcontrol/internal/profile"
)

// maxRecentPayments bounds the settled-invoice history shown in the portal.
const maxRecentPayments = 10

// Service handles portal and read-only dashboard flows.
type Service struct {
	clients *clients.Service
	ledger  *ledger.Service
	profile *profile.Service
	cache   *AccessCache
	now     func() time.Time
}

// NewService builds a Service instance.
func NewService(clientsSvc *clients.Service, ledgerSvc *ledger.Service, profileSvc *profile.Service, cache *AccessCache) *Service {
	return &Service{
		clients: clientsSvc,
		ledger:  ledgerSvc,
		profile: profileSvc,
		cache:   cache,
		now:     time.Now,
	}
}

// Link is a generated share link.
type Link struct {
	Token string `json:"token"`
	URL   string `json:"link"`
}

// GenerateLink derives the client's portal token and records it on the client
// row for reference.
func (s *Service) GenerateLink(ctx context.Context, sheetID, businessID, clientID string) (*Link, error) {
	if _, err := s.clients.Get(ctx, sheetID, clientID); err != nil {
		return nil, err
	}
	token := DeriveToken(clientID, businessID)
	if err := s.clients.SavePortalToken(ctx, sheetID, clientID, token); err != nil {
		return nil, err
	}
	return &Link{Token: token, URL: "/portal_clientes.html?t=" + token}, nil
}

// Info is the pre-verification portal greeting.
type Info struct {
	Company    string `json:"empresa"`
	ClientName string `json:"clienteNombre"`
}

// Info resolves a portal token to the company and client names shown on the
// code-entry screen.
func (s *Service) Info(ctx context.Context, sheetID, token string) (*Info, error) {
	client, err := s.clientByToken(ctx, sheetID, token)
	if err != nil {
		return nil, err
	}
	company, err := s.profile.CompanyName(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	return &Info{Company: company, ClientName: client.Name}, nil
}

// PendingRow is one open invoice in the statement.
type PendingRow struct {
	Consecutivo string    `json:"consecutivo"`
	IssueDate   time.Time `json:"fecha"`
	DueDate     time.Time `json:"fechaVencimiento"`
	Balance     float64   `json:"saldoPendiente"`
	GrossTotal  float64   `json:"totalFactura"`
	Corfoga     float64   `json:"corfoga"`
	Overdue     bool      `json:"vencida"`
}

// PaidRow is one settled invoice in the statement history.
type PaidRow struct {
	Consecutivo string    `json:"consecutivo"`
	SettledDate time.Time `json:"fechaPago"`
	Amount      float64   `json:"monto"`
}

// Statement is the client's account view after code verification.
type Statement struct {
	Client       clients.Client `json:"cliente"`
	Pending      []PendingRow   `json:"facturas"`
	Payments     []PaidRow      `json:"pagos"`
	TotalPending float64        `json:"totalPendiente"`
	TotalOverdue float64        `json:"totalVencido"`
	PendingCount int            `json:"facturasPendientes"`
}

// Verify checks the access code against the client's tax ID and, on success,
// returns the statement plus a short-lived access token.
func (s *Service) Verify(ctx context.Context, sheetID, token, code string) (*Statement, string, error) {
	client, err := s.clientByToken(ctx, sheetID, token)
	if err != nil {
		return nil, "", err
	}
	if !VerifyAccessCode(client.TaxID, code) {
		return nil, "", httpx.Validationf("incorrect access code")
	}
	statement, err := s.buildStatement(ctx, sheetID, client)
	if err != nil {
		return nil, "", err
	}
	access, err := s.cache.Issue(ctx, sheetID+":"+client.ID)
	if err != nil {
		return nil, "", err
	}
	return statement, access, nil
}

// StatementByToken returns the statement without code verification, used by
// the PDF download after the session was already verified.
func (s *Service) StatementByToken(ctx context.Context, sheetID, token string) (*Statement, error) {
	client, err := s.clientByToken(ctx, sheetID, token)
	if err != nil {
		return nil, err
	}
	return s.buildStatement(ctx, sheetID, client)
}

func (s *Service) clientByToken(ctx context.Context, sheetID, token string) (*clients.Client, error) {
	if token == "" {
		return nil, httpx.Validationf("token is required")
	}
	all, err := s.clients.List(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].PortalToken == token {
			return &all[i], nil
		}
	}
	return nil, httpx.NotFoundf("invalid or expired link")
}

func (s *Service) buildStatement(ctx context.Context, sheetID string, client *clients.Client) (*Statement, error) {
	docs, err := s.ledger.ListDocuments(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	st := &Statement{Client: *client}
	for _, d := range docs {
		if d.ClientID != client.ID || d.Type != ledger.TypeInvoice {
			continue
		}
		if d.State.Terminal() {
			if d.State == ledger.StatePaid {
				st.Payments = append(st.Payments, PaidRow{
					Consecutivo: d.Consecutivo,
					SettledDate: d.SettledDate,
					Amount:      d.NetCollectible,
				})
			}
			continue
		}
		overdue := !d.DueDate.IsZero() && d.DueDate.Before(now)
		st.Pending = append(st.Pending, PendingRow{
			Consecutivo: d.Consecutivo,
			IssueDate:   d.IssueDate,
			DueDate:     d.DueDate,
			Balance:     d.Balance,
			GrossTotal:  d.GrossTotal,
			Corfoga:     d.Corfoga,
			Overdue:     overdue,
		})
		st.TotalPending += d.Balance
		if overdue {
			st.TotalOverdue += d.Balance
		}
	}
	st.TotalPending = money.Round2(st.TotalPending)
	st.TotalOverdue = money.Round2(st.TotalOverdue)
	st.PendingCount = len(st.Pending)

	sort.Slice(st.Pending, func(i, j int) bool {
		return st.Pending[i].DueDate.Before(st.Pending[j].DueDate)
	})
	sort.Slice(st.Payments, func(i, j int) bool {
		return st.Payments[i].SettledDate.After(st.Payments[j].SettledDate)
	})
	if len(st.Payments) > maxRecentPayments {
		st.Payments = st.Payments[:maxRecentPayments]
	}
	return st, nil
}

// DashboardAccess is a generated owner-dashboard credential.
type DashboardAccess struct {
	Token string `json:"token"`
	URL   string `json:"link"`
}

// GenerateDashboardAccess mints a dashboard link protected by an access code.
// Only the bcrypt hash of the code is stored.
func (s *Service) GenerateDashboardAccess(ctx context.Context, sheetID, code string) (*DashboardAccess, error) {
	if len(code) < 4 {
		return nil, httpx.Validationf("access code must be at least 4 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	token := randomToken(12)
	if err := s.profile.SetInternal(ctx, sheetID, profile.KeyDashboardToken, token); err != nil {
		return nil, err
	}
	if err := s.profile.SetInternal(ctx, sheetID, profile.KeyDashboardCode, string(hash)); err != nil {
		return nil, err
	}
	return &DashboardAccess{Token: token, URL: "/dashboard_readonly.html?t=" + token}, nil
}

// VerifyDashboard checks the dashboard token and code and issues a
// short-lived access token on success.
func (s *Service) VerifyDashboard(ctx context.Context, sheetID, token, code string) (string, string, error) {
	if token == "" || code == "" {
		return "", "", httpx.Validationf("token and code are required")
	}
	stored, err := s.profile.GetInternal(ctx, sheetID, profile.KeyDashboardToken)
	if err != nil {
		return "", "", err
	}
	if stored == "" || stored != token {
		return "", "", httpx.NotFoundf("invalid link")
	}
	hash, err := s.profile.GetInternal(ctx, sheetID, profile.KeyDashboardCode)
	if err != nil {
		return "", "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return "", "", httpx.Validationf("incorrect access code")
	}
	company, err := s.profile.CompanyName(ctx, sheetID)
	if err != nil {
		return "", "", err
	}
	access, err := s.cache.Issue(ctx, sheetID+":dashboard")
	if err != nil {
		return "", "", err
	}
	return company, access, nil
}
