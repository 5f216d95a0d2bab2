package wallethandlers

import (
	"context"

	walletservice "github.com/Black-And-White-Club/dingleup/app/modules/wallet/application"
	walletdomain "github.com/Black-And-White-Club/dingleup/app/modules/wallet/domain"
	"github.com/google/uuid"
)

// FakeWalletService records calls and returns canned responses.
type FakeWalletService struct {
	trace []string

	EnsureWalletFunc    func(ctx context.Context, userUUID uuid.UUID) (*walletservice.WalletView, error)
	CreditFunc          func(ctx context.Context, req walletservice.LedgerRequest) (*walletservice.WalletView, error)
	GetWalletFunc       func(ctx context.Context, userUUID uuid.UUID) (*walletservice.WalletView, error)
	ActivateBoosterFunc func(ctx context.Context, userUUID uuid.UUID, t walletdomain.BoosterType) (*walletservice.WalletView, error)
}

func NewFakeWalletService() *FakeWalletService {
	return &FakeWalletService{trace: []string{}}
}

func (f *FakeWalletService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeWalletService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeWalletService) EnsureWallet(ctx context.Context, userUUID uuid.UUID) (*walletservice.WalletView, error) {
	f.record("EnsureWallet")
	if f.EnsureWalletFunc != nil {
		return f.EnsureWalletFunc(ctx, userUUID)
	}
	return &walletservice.WalletView{UserUUID: userUUID}, nil
}

func (f *FakeWalletService) GetWallet(ctx context.Context, userUUID uuid.UUID) (*walletservice.WalletView, error) {
	f.record("GetWallet")
	if f.GetWalletFunc != nil {
		return f.GetWalletFunc(ctx, userUUID)
	}
	return &walletservice.WalletView{UserUUID: userUUID}, nil
}

func (f *FakeWalletService) Credit(ctx context.Context, req walletservice.LedgerRequest) (*walletservice.WalletView, error) {
	f.record("Credit")
	if f.CreditFunc != nil {
		return f.CreditFunc(ctx, req)
	}
	return &walletservice.WalletView{UserUUID: req.UserUUID}, nil
}

func (f *FakeWalletService) Debit(_ context.Context, req walletservice.LedgerRequest) (*walletservice.WalletView, error) {
	f.record("Debit")
	return &walletservice.WalletView{UserUUID: req.UserUUID}, nil
}

func (f *FakeWalletService) ConsumeLife(_ context.Context, userUUID uuid.UUID, _, _ string) (*walletservice.WalletView, error) {
	f.record("ConsumeLife")
	return &walletservice.WalletView{UserUUID: userUUID}, nil
}

func (f *FakeWalletService) ActivateBooster(ctx context.Context, userUUID uuid.UUID, t walletdomain.BoosterType) (*walletservice.WalletView, error) {
	f.record("ActivateBooster")
	if f.ActivateBoosterFunc != nil {
		return f.ActivateBoosterFunc(ctx, userUUID, t)
	}
	return &walletservice.WalletView{UserUUID: userUUID}, nil
}

func (f *FakeWalletService) ExpireBooster(_ context.Context, userUUID uuid.UUID) (*walletservice.WalletView, error) {
	f.record("ExpireBooster")
	return &walletservice.WalletView{UserUUID: userUUID}, nil
}

func (f *FakeWalletService) SweepExpiredBoosters(context.Context) (int, error) {
	f.record("SweepExpiredBoosters")
	return 0, nil
}

func (f *FakeWalletService) ListBoosters() []walletdomain.BoosterSpec {
	f.record("ListBoosters")
	return walletdomain.Boosters()
}

var _ walletservice.Service = (*FakeWalletService)(nil)
