package services

import (
	"context"
	"sync"

	"bettersaved/application/ports"
	"bettersaved/domain/config"
	"bettersaved/domain/core/entities"
	"bettersaved/domain/core/valueobjects"
	"bettersaved/domain/events"
	pkgerrors "bettersaved/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session is an authenticated workspace paired with the user's complete resource set
type Session struct {
	Profile   *entities.Profile
	Workspace ports.Workspace
	Resources entities.ResourceSet
}

// ResourceResolver returns, or lazily reconstructs, the remote folders and ledger of a user.
//
// Resolution is find-or-create and safe to repeat. Two concurrent resolutions for the
// same user may both create resources; the next call converges on whatever the profile
// store holds, so the race is tolerated rather than locked out.
type ResourceResolver struct {
	profiles   ports.ProfileRepository
	workspaces ports.WorkspaceFactory
	publisher  ports.EventPublisher
	clock      ports.Clock
	cfg        *config.DomainConfig
	logger     *zap.Logger
}

// NewResourceResolver creates a new resolver
func NewResourceResolver(
	profiles ports.ProfileRepository,
	workspaces ports.WorkspaceFactory,
	publisher ports.EventPublisher,
	clock ports.Clock,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *ResourceResolver {
	return &ResourceResolver{
		profiles:   profiles,
		workspaces: workspaces,
		publisher:  publisher,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Resolve returns a session with a complete resource set, or fails with
// NOT_CONNECTED or RECOVERY_FAILED.
func (r *ResourceResolver) Resolve(ctx context.Context, userID string) (*Session, error) {
	profile, err := r.profiles.Get(ctx, userID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewNotConnectedError(userID)
		}
		return nil, err
	}
	if !profile.IsConnected() {
		return nil, pkgerrors.NewNotConnectedError(userID)
	}

	ws, err := r.workspaces.Open(ctx, profile.Credential)
	if err != nil {
		return nil, pkgerrors.NewRecoveryFailedError("open_session", err)
	}

	if rs := profile.Resources(); rs.Complete() {
		return &Session{Profile: profile, Workspace: ws, Resources: rs}, nil
	}

	return r.recover(ctx, profile, ws)
}

// Repair drops the cached ledger and type folder handles and runs recovery again.
// The stored root folder id is kept as the search hint.
func (r *ResourceResolver) Repair(ctx context.Context, userID string) (*Session, error) {
	profile, err := r.profiles.Get(ctx, userID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewNotConnectedError(userID)
		}
		return nil, err
	}
	if !profile.IsConnected() {
		return nil, pkgerrors.NewNotConnectedError(userID)
	}

	ws, err := r.workspaces.Open(ctx, profile.Credential)
	if err != nil {
		return nil, pkgerrors.NewRecoveryFailedError("open_session", err)
	}

	profile.ForgetLedger(r.clock.Now())
	profile.TypeFolderIDs = nil
	return r.recover(ctx, profile, ws)
}

func (r *ResourceResolver) recover(ctx context.Context, profile *entities.Profile, ws ports.Workspace) (*Session, error) {
	logger := r.logger.With(zap.String("userID", profile.UserID))

	root, err := r.findRoot(ctx, ws, profile.RootFolderID)
	if err != nil {
		return nil, pkgerrors.NewRecoveryFailedError("find_root", err)
	}

	var (
		rs   entities.ResourceSet
		mode string
	)

	if root == nil {
		logger.Info("No storage found, creating root folder and ledger")
		rs, err = r.createAll(ctx, ws)
		if err != nil {
			return nil, err
		}
		mode = events.ProvisionCreated
	} else {
		rs = entities.ResourceSet{RootFolderID: root.ID, RootFolderURL: root.URL}
		if root.ID == profile.RootFolderID {
			rs.TypeFolderIDs = profile.Resources().TypeFolderIDs
		}
		if rs.TypeFolderIDs, err = r.discoverTypeFolders(ctx, ws, root.ID, rs.TypeFolderIDs); err != nil {
			return nil, pkgerrors.NewRecoveryFailedError("find_type_folders", err)
		}

		ledger, err := ws.FindSpreadsheet(ctx, r.cfg.LedgerName, root.ID)
		if err != nil {
			return nil, pkgerrors.NewRecoveryFailedError("find_ledger", err)
		}
		mode = events.ProvisionRecovered
		if ledger == nil {
			logger.Info("Ledger missing under root folder, creating a new one", zap.String("rootFolderID", root.ID))
			if ledger, err = r.createLedger(ctx, ws, root.ID); err != nil {
				return nil, err
			}
			mode = events.ProvisionLedgerCreated
		}
		rs.LedgerID = ledger.ID
		rs.LedgerURL = ledger.URL
	}

	// only the resource handles are written, so a disconnect or deletion made
	// while recovery ran is not undone
	now := r.clock.Now()
	if err := r.profiles.SetResources(ctx, profile.UserID, rs); err != nil {
		if pkgerrors.IsNotConnected(err) {
			logger.Info("Profile disconnected during recovery, resources not stored")
			return nil, err
		}
		return nil, pkgerrors.NewRecoveryFailedError("persist", err)
	}
	profile.ApplyResources(rs, now)

	logger.Info("Resources resolved",
		zap.String("mode", mode),
		zap.String("rootFolderID", rs.RootFolderID),
		zap.String("ledgerID", rs.LedgerID),
	)
	publish(ctx, r.publisher, r.logger, events.NewResourcesProvisioned(profile.UserID, rs.RootFolderID, rs.LedgerID, mode, now))

	return &Session{Profile: profile, Workspace: ws, Resources: profile.Resources()}, nil
}

// findRoot prefers the stored root id and falls back to a name search under the drive root
func (r *ResourceResolver) findRoot(ctx context.Context, ws ports.Workspace, knownID string) (*ports.Folder, error) {
	if knownID != "" {
		folder, err := ws.GetFolder(ctx, knownID)
		if err != nil {
			return nil, err
		}
		if folder != nil {
			return folder, nil
		}
	}
	return ws.FindFolder(ctx, r.cfg.RootFolderName, "")
}

// discoverTypeFolders looks up, without creating, the type folders missing from known
func (r *ResourceResolver) discoverTypeFolders(
	ctx context.Context,
	ws ports.Workspace,
	rootID string,
	known map[valueobjects.FolderClass]string,
) (map[valueobjects.FolderClass]string, error) {
	found := make(map[valueobjects.FolderClass]string, len(known))
	for k, v := range known {
		found[k] = v
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, class := range valueobjects.AllFolderClasses() {
		if found[class] != "" {
			continue
		}
		class := class
		g.Go(func() error {
			folder, err := ws.FindFolder(gctx, class.FolderName(), rootID)
			if err != nil || folder == nil {
				return err
			}
			mu.Lock()
			found[class] = folder.ID
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

func (r *ResourceResolver) createAll(ctx context.Context, ws ports.Workspace) (entities.ResourceSet, error) {
	root, err := ws.CreateFolder(ctx, r.cfg.RootFolderName, "")
	if err != nil {
		return entities.ResourceSet{}, pkgerrors.NewRecoveryFailedError("create_root", err)
	}

	typeFolders := make(map[valueobjects.FolderClass]string)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, class := range valueobjects.AllFolderClasses() {
		class := class
		g.Go(func() error {
			folder, err := ws.CreateFolder(gctx, class.FolderName(), root.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			typeFolders[class] = folder.ID
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return entities.ResourceSet{}, pkgerrors.NewRecoveryFailedError("create_type_folders", err)
	}

	ledger, err := r.createLedger(ctx, ws, root.ID)
	if err != nil {
		return entities.ResourceSet{}, err
	}

	return entities.ResourceSet{
		RootFolderID:  root.ID,
		RootFolderURL: root.URL,
		TypeFolderIDs: typeFolders,
		LedgerID:      ledger.ID,
		LedgerURL:     ledger.URL,
	}, nil
}

func (r *ResourceResolver) createLedger(ctx context.Context, ws ports.Workspace, rootID string) (*ports.Ledger, error) {
	ledger, err := ws.CreateLedger(ctx, ports.LedgerSpec{
		Title:     r.cfg.LedgerName,
		SheetName: r.cfg.LedgerSheetName,
		Header:    r.cfg.LedgerHeader,
		ParentID:  rootID,
	})
	if err != nil {
		return nil, pkgerrors.NewRecoveryFailedError("create_ledger", err)
	}
	return ledger, nil
}
