package adminservice

import (
	"context"
	"io"

	admindomain "github.com/Black-And-White-Club/dingleup/app/modules/admin/domain"
	admindb "github.com/Black-And-White-Club/dingleup/app/modules/admin/infrastructure/repositories"
	gameservice "github.com/Black-And-White-Club/dingleup/app/modules/game/application"
)

// ------------------------
// Fake Admin Repo
// ------------------------

type FakeAdminRepo struct {
	trace []string

	Total, Created int
	Played, Won    int
	Earned, Spent  int64
	Boosters       int
	Daily          []admindomain.DayCount
	Err            error
}

func (f *FakeAdminRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeAdminRepo) Trace() []string {
	return f.trace
}

func (f *FakeAdminRepo) CountUsers(context.Context, admindomain.Range) (int, int, error) {
	f.record("CountUsers")
	return f.Total, f.Created, f.Err
}

func (f *FakeAdminRepo) GameTotals(context.Context, admindomain.Range) (int, int, error) {
	f.record("GameTotals")
	return f.Played, f.Won, f.Err
}

func (f *FakeAdminRepo) CoinTotals(context.Context, admindomain.Range) (int64, int64, error) {
	f.record("CoinTotals")
	return f.Earned, f.Spent, f.Err
}

func (f *FakeAdminRepo) CountBoosters(context.Context, admindomain.Range) (int, error) {
	f.record("CountBoosters")
	return f.Boosters, f.Err
}

func (f *FakeAdminRepo) DailyGames(context.Context, admindomain.Range) ([]admindomain.DayCount, error) {
	f.record("DailyGames")
	return f.Daily, f.Err
}

var _ admindb.Repository = (*FakeAdminRepo)(nil)

// ------------------------
// Fake Question Importer
// ------------------------

type FakeImporter struct {
	Data   []byte
	Report *gameservice.ImportReport
	Err    error
}

func (f *FakeImporter) ImportQuestions(_ context.Context, src io.Reader) (*gameservice.ImportReport, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	f.Data = data
	return f.Report, f.Err
}

var _ QuestionImporter = (*FakeImporter)(nil)
