package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/cxcontrol/cxcontrol/internal/clients"
	"github.com/cxcontrol/cxcontrol/internal/ledger"
	"github.com/cxcontrol/cxcontrol/internal/platform/httpx"
	"github.com/cxcontrol/cxcontrol/internal/platform/sheets"
	"github.com/cxcontrol/cxcontrol/internal/profile"
)

const (
	testSheet    = "sheet-1"
	testBusiness = "biz-1"
)

type fixture struct {
	portal  *Service
	clients *clients.Service
	ledger  *ledger.Service
	redis   *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := sheets.NewMemStore()
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	clientsSvc := clients.NewService(clients.NewRepository(store), node)
	ledgerSvc := ledger.NewService(ledger.NewRepository(store), node)
	profileSvc := profile.NewService(profile.NewRepository(store))

	return &fixture{
		portal:  NewService(clientsSvc, ledgerSvc, profileSvc, NewAccessCache(rdb)),
		clients: clientsSvc,
		ledger:  ledgerSvc,
		redis:   mr,
	}
}

func TestDeriveTokenStable(t *testing.T) {
	a := DeriveToken("client-1", "biz-1")
	b := DeriveToken("client-1", "biz-1")
	require.Equal(t, a, b)
	require.Len(t, a, 16)
	require.NotEqual(t, a, DeriveToken("client-2", "biz-1"))
	require.NotEqual(t, a, DeriveToken("client-1", "biz-2"))
}

func TestVerifyAccessCode(t *testing.T) {
	require.True(t, VerifyAccessCode("3-101-123456", "3456"))
	require.True(t, VerifyAccessCode("101 99 8877", "8877"))
	require.False(t, VerifyAccessCode("3-101-123456", "0000"))
	require.False(t, VerifyAccessCode("12", "0012"))
	require.False(t, VerifyAccessCode("", "1234"))
	require.False(t, VerifyAccessCode("3-101-123456", "123456"))
}

func TestGenerateLinkAndInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.clients.Create(ctx, testSheet, clients.CreateInput{Name: "Super El Roble", TaxID: "3-101-555566"})
	require.NoError(t, err)

	link, err := f.portal.GenerateLink(ctx, testSheet, testBusiness, c.ID)
	require.NoError(t, err)
	require.Equal(t, DeriveToken(c.ID, testBusiness), link.Token)

	info, err := f.portal.Info(ctx, testSheet, link.Token)
	require.NoError(t, err)
	require.Equal(t, "Super El Roble", info.ClientName)
}

func TestInfoUnknownToken(t *testing.T) {
	f := newFixture(t)
	_, err := f.portal.Info(context.Background(), testSheet, "nope")
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestVerifyIssuesAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.clients.Create(ctx, testSheet, clients.CreateInput{Name: "Cliente", TaxID: "1-2345-6789"})
	require.NoError(t, err)
	link, err := f.portal.GenerateLink(ctx, testSheet, testBusiness, c.ID)
	require.NoError(t, err)

	_, err = f.ledger.CreateDocument(ctx, testSheet, ledger.CreateDocumentInput{
		Consecutivo: "00100001010000000001",
		ClientID:    c.ID,
		GrossTotal:  1500,
		DueDate:     time.Now().AddDate(0, 0, -3),
	})
	require.NoError(t, err)

	statement, access, err := f.portal.Verify(ctx, testSheet, link.Token, "6789")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.Equal(t, 1, statement.PendingCount)
	require.Equal(t, 1500.0, statement.TotalPending)
	require.Equal(t, 1500.0, statement.TotalOverdue)

	cache := NewAccessCache(redis.NewClient(&redis.Options{Addr: f.redis.Addr()}))
	scope, err := cache.Check(ctx, access)
	require.NoError(t, err)
	require.Equal(t, testSheet+":"+c.ID, scope)

	// The session expires with the TTL.
	f.redis.FastForward(AccessTTL + time.Minute)
	scope, err = cache.Check(ctx, access)
	require.NoError(t, err)
	require.Empty(t, scope)
}

func TestVerifyWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.clients.Create(ctx, testSheet, clients.CreateInput{Name: "Cliente", TaxID: "1-2345-6789"})
	require.NoError(t, err)
	link, err := f.portal.GenerateLink(ctx, testSheet, testBusiness, c.ID)
	require.NoError(t, err)

	_, _, err = f.portal.Verify(ctx, testSheet, link.Token, "0000")
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestDashboardAccessRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	access, err := f.portal.GenerateDashboardAccess(ctx, testSheet, "clave99")
	require.NoError(t, err)
	require.NotEmpty(t, access.Token)

	_, session, err := f.portal.VerifyDashboard(ctx, testSheet, access.Token, "clave99")
	require.NoError(t, err)
	require.NotEmpty(t, session)

	_, _, err = f.portal.VerifyDashboard(ctx, testSheet, access.Token, "wrong")
	require.True(t, errors.Is(err, httpx.ErrValidation))

	_, _, err = f.portal.VerifyDashboard(ctx, testSheet, "bad-token", "clave99")
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestDashboardAccessRejectsShortCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.portal.GenerateDashboardAccess(context.Background(), testSheet, "abc")
	require.True(t, errors.Is(err, httpx.ErrValidation))
}
