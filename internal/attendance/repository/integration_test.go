package repository_test

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/repository"
	"github.com/staffdesk/staffdesk-backend/pkg/database"
	apperrors "github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}

	code := m.Run()
	suite.Cleanup(ctx)
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

func setupDirectory(t *testing.T, name string) (*database.DB, domain.Agent, domain.Agent) {
	t.Helper()
	testutil.SkipIfShort(t)

	ctx := context.Background()
	db := suite.SetupDatabase(t, ctx, name, repository.Migrations)

	client := suite.Fixtures.Client(func(c *domain.Client) { c.Name = "Acme" })
	testutil.InsertClients(t, ctx, db, client)
	amina := suite.Fixtures.Agent(testutil.WithAgentName("Amina"), testutil.WithClient(client.ID))
	bilal := suite.Fixtures.Agent(testutil.WithAgentName("Bilal"), testutil.WorkingFromHome())
	testutil.InsertAgents(t, ctx, db, bilal, amina)

	return db, amina, bilal
}

func TestMigrate_Idempotent(t *testing.T) {
	db, _, _ := setupDirectory(t, "migrate_idempotent")

	applied, err := db.Migrate(context.Background(), repository.Migrations)

	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestEntryRepository_UpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, amina, _ := setupDirectory(t, "upsert_round_trip")
	repo := repository.NewEntryRepository(db)
	f := testutil.NewFixtureFactory()

	first, err := repo.UpsertEntry(ctx, f.Upsert(amina.ID, "2024-03-05", domain.StatusPresentOffice, 2))
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(t, "2024-03-05"), first.Date)

	// same key, no extra hours: status replaced, hours kept, one row
	second, err := repo.UpsertEntry(ctx, domain.EntryUpsert{
		AgentID: amina.ID,
		Date:    testutil.Date(t, "2024-03-05"),
		Status:  domain.StatusPresentHome,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.StatusPresentHome, second.Status)
	assert.True(t, second.ExtraHours.Equal(decimal.NewFromInt(2)))

	entries, err := repo.FindEntries(ctx, domain.EntryFilter{
		AgentIDs: []string{amina.ID},
		From:     testutil.Date(t, "2024-03-04"),
		To:       testutil.Date(t, "2024-03-11"),
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StatusPresentHome, entries[0].Status)
}

func TestEntryRepository_FindEntries_HalfOpenRange(t *testing.T) {
	ctx := context.Background()
	db, amina, bilal := setupDirectory(t, "find_half_open")
	repo := repository.NewEntryRepository(db)
	f := testutil.NewFixtureFactory()

	for _, u := range []domain.EntryUpsert{
		f.Upsert(amina.ID, "2024-03-03", domain.StatusDayOff, 0),
		f.Upsert(amina.ID, "2024-03-04", domain.StatusAbsent, 0),
		f.Upsert(amina.ID, "2024-03-10", domain.StatusDayOff, 0),
		f.Upsert(amina.ID, "2024-03-11", domain.StatusVacation, 0),
		f.Upsert(bilal.ID, "2024-03-06", domain.StatusPresentHome, 1),
	} {
		_, err := repo.UpsertEntry(ctx, u)
		require.NoError(t, err)
	}

	entries, err := repo.FindEntries(ctx, domain.EntryFilter{
		From: testutil.Date(t, "2024-03-04"),
		To:   testutil.Date(t, "2024-03-11"),
	})
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.AgentID+"@"+domain.FormatDate(e.Date))
	}
	assert.ElementsMatch(t, []string{
		amina.ID + "@2024-03-04",
		amina.ID + "@2024-03-10",
		bilal.ID + "@2024-03-06",
	}, got)
}

func TestEntryRepository_SumExtraHours_Integration(t *testing.T) {
	ctx := context.Background()
	db, amina, _ := setupDirectory(t, "sum_extra_hours")
	repo := repository.NewEntryRepository(db)
	f := testutil.NewFixtureFactory()

	for _, u := range []domain.EntryUpsert{
		f.Upsert(amina.ID, "2024-03-04", domain.StatusPresentOffice, 4),
		f.Upsert(amina.ID, "2024-03-05", domain.StatusPresentOffice, 2),
		f.Upsert(amina.ID, "2024-03-06", domain.StatusPresentOffice, 1),
		f.Upsert(amina.ID, "2024-03-11", domain.StatusPresentOffice, 3),
	} {
		_, err := repo.UpsertEntry(ctx, u)
		require.NoError(t, err)
	}

	total, err := repo.SumExtraHours(ctx, amina.ID,
		testutil.Date(t, "2024-03-04"), testutil.Date(t, "2024-03-11"), testutil.Date(t, "2024-03-06"))

	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(6)), total.String())
}

func TestEntryRepository_Constraints(t *testing.T) {
	ctx := context.Background()
	db, amina, _ := setupDirectory(t, "entry_constraints")
	repo := repository.NewEntryRepository(db)
	f := testutil.NewFixtureFactory()

	_, err := repo.UpsertEntry(ctx, f.Upsert(amina.ID, "2024-03-05", "weekend", 0))
	assert.ErrorIs(t, err, apperrors.ErrUnknownStatus)

	_, err = repo.UpsertEntry(ctx, f.Upsert("ghost", "2024-03-05", domain.StatusAbsent, 0))
	assert.ErrorIs(t, err, apperrors.ErrUnknownAgent)

	_, err = repo.UpsertEntry(ctx, f.Upsert(amina.ID, "2024-03-05", domain.StatusPresentOffice, -1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDirectoryRepository_Integration(t *testing.T) {
	ctx := context.Background()
	db, amina, bilal := setupDirectory(t, "directory")
	repo := repository.NewDirectoryRepository(db)

	agents, err := repo.ListAgents(ctx, domain.AgentFilter{})
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "Amina", agents[0].Name, "ordered by name")
	assert.Equal(t, "Bilal", agents[1].Name)
	assert.True(t, agents[1].WorksFromHome)

	filtered, err := repo.ListAgents(ctx, domain.AgentFilter{ClientID: amina.ClientID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, amina.ID, filtered[0].ID)

	require.NoError(t, repo.DeleteAgent(ctx, bilal.ID))
	_, err = repo.GetAgent(ctx, bilal.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnknownAgent)

	// an upsert revives the agent
	bilal.Position = "Senior Agent"
	require.NoError(t, repo.UpsertAgent(ctx, bilal))
	revived, err := repo.GetAgent(ctx, bilal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Agent", revived.Position)

	require.NoError(t, repo.DeleteClient(ctx, *amina.ClientID))
	clients, err := repo.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)

	detached, err := repo.GetAgent(ctx, amina.ID)
	require.NoError(t, err)
	assert.Nil(t, detached.ClientID)
}
