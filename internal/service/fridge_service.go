package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akowalska/fridgetrack/internal/chef"
	"github.com/akowalska/fridgetrack/internal/domain"
	"github.com/akowalska/fridgetrack/internal/lots"
	"github.com/akowalska/fridgetrack/internal/store"
	"github.com/akowalska/fridgetrack/internal/units"
)

// exhaustionEpsilon is the residue, in a row's native unit, below which the
// row is treated as used up and soft-deleted instead of keeping a crumb.
const exhaustionEpsilon = 0.001

// fridgeRepository is the subset of store.FridgeStore that FridgeService requires.
type fridgeRepository interface {
	Create(ctx context.Context, ownerID int64, name string) (*domain.Fridge, error)
	GetByID(ctx context.Context, id int64) (*domain.Fridge, error)
	GetActiveByOwner(ctx context.Context, ownerID int64) (*domain.Fridge, error)
}

// productRepository is the subset of store.ProductStore that FridgeService requires.
type productRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
}

// itemRepository is the subset of store.ItemStore that FridgeService requires.
type itemRepository interface {
	Create(ctx context.Context, item *domain.Item, entry *domain.HistoryEntry) (*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	ListActiveByFridge(ctx context.Context, fridgeID int64) ([]*domain.Item, error)
	ListLotMembers(ctx context.Context, ref *domain.Item) ([]*domain.Item, error)
	ListActiveExpiring(ctx context.Context, fridgeID int64, cutoff time.Time) ([]*domain.Item, error)
	CountActiveByOwner(ctx context.Context, ownerID int64) (int, error)
	CountExpiringOn(ctx context.Context, ownerID int64, day time.Time) (int, error)
	CountExpiredBefore(ctx context.Context, ownerID int64, day time.Time) (int, error)
	ApplyConsumption(ctx context.Context, ops []store.ConsumeOp) error
	Discard(ctx context.Context, ops []store.DiscardOp) error
}

// historyRepository is the subset of store.HistoryStore that FridgeService requires.
type historyRepository interface {
	ListByItem(ctx context.Context, itemID int64) ([]*domain.HistoryEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.HistoryEntry, error)
	LastByUser(ctx context.Context, userID int64) (*domain.HistoryEntry, error)
}

type FridgeService struct {
	fridges   fridgeRepository
	items     itemRepository
	products  productRepository
	history   historyRepository
	suggester chef.Suggester // nil when suggestions are disabled
	logger    *slog.Logger
}

func NewFridgeService(
	fridges fridgeRepository,
	items itemRepository,
	products productRepository,
	history historyRepository,
	suggester chef.Suggester,
	logger *slog.Logger,
) *FridgeService {
	return &FridgeService{
		fridges:   fridges,
		items:     items,
		products:  products,
		history:   history,
		suggester: suggester,
		logger:    logger,
	}
}

// LotView is the caller-facing shape of one lot: totals in the display unit,
// expiry urgency, and the representative row id every mutation is addressed
// through.
type LotView struct {
	ItemID     int64
	ProductID  *int64
	Name       string
	Label      string
	Amount     float64
	Unit       units.Unit
	Family     units.Family
	BaseTotal  int64
	MemberIDs  []int64
	ExpiresOn  *time.Time
	Band       lots.Band
	FirstAdded time.Time
	LastAdded  time.Time
}

// ListLots returns the grouped view of the user's fridge. A user with no
// fridge simply has no lots.
func (s *FridgeService) ListLots(ctx context.Context, userID int64, today time.Time) ([]LotView, error) {
	fridge, err := s.fridges.GetActiveByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if fridge == nil {
		return []LotView{}, nil
	}

	items, err := s.items.ListActiveByFridge(ctx, fridge.ID)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, items, today)
}

// ExpiringLots returns lots expiring within two days of today (expired ones
// included), soonest first.
func (s *FridgeService) ExpiringLots(ctx context.Context, userID int64, today time.Time) ([]LotView, error) {
	fridge, err := s.fridges.GetActiveByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if fridge == nil {
		return []LotView{}, nil
	}

	items, err := s.items.ListActiveExpiring(ctx, fridge.ID, lots.ExpiringCutoff(today))
	if err != nil {
		return nil, err
	}

	views, err := s.buildViews(ctx, items, today)
	if err != nil {
		return nil, err
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].ExpiresOn.Before(*views[j].ExpiresOn)
	})
	return views, nil
}

func (s *FridgeService) buildViews(ctx context.Context, items []*domain.Item, today time.Time) ([]LotView, error) {
	grouped, err := lots.Group(items)
	if err != nil {
		return nil, err
	}

	views := make([]LotView, 0, len(grouped))
	for _, lot := range grouped {
		amount, unit := units.ToDisplay(lot.BaseTotal, lot.Family)
		view := LotView{
			ItemID:     lot.Representative,
			ProductID:  lot.ProductID,
			Name:       lot.Label,
			Label:      lot.Label,
			Amount:     amount,
			Unit:       unit,
			Family:     lot.Family,
			BaseTotal:  lot.BaseTotal,
			MemberIDs:  lot.MemberIDs,
			ExpiresOn:  lot.ExpiresOn,
			Band:       lots.ClassifyExpiry(lot.ExpiresOn, today),
			FirstAdded: lot.FirstAdded,
			LastAdded:  lot.LastAdded,
		}

		// Catalog data only dresses up the name, never the numbers.
		if lot.ProductID != nil {
			product, err := s.products.GetByID(ctx, *lot.ProductID)
			if err != nil {
				return nil, err
			}
			if product != nil {
				brand := product.Brand
				if brand == "" {
					brand = "no brand"
				}
				view.Name = fmt.Sprintf("%s (%s)", product.Name, brand)
			}
		}
		if view.Name == "" {
			view.Name = "Unnamed product"
		}

		views = append(views, view)
	}
	return views, nil
}

// Counts summarizes the user's inventory for the dashboard.
type Counts struct {
	Items            int
	ExpiringTomorrow int
	Expired          int
}

func (s *FridgeService) Counts(ctx context.Context, userID int64, today time.Time) (Counts, error) {
	var c Counts
	var err error

	if c.Items, err = s.items.CountActiveByOwner(ctx, userID); err != nil {
		return Counts{}, err
	}
	if c.ExpiringTomorrow, err = s.items.CountExpiringOn(ctx, userID, lots.Day(today).AddDate(0, 0, 1)); err != nil {
		return Counts{}, err
	}
	if c.Expired, err = s.items.CountExpiredBefore(ctx, userID, lots.Day(today)); err != nil {
		return Counts{}, err
	}
	return c, nil
}

// AddItemInput is everything a user supplies when adding a row.
type AddItemInput struct {
	Label     string
	Amount    float64
	Unit      string
	ExpiresOn *time.Time
	Barcode   string
}

// AddItem creates a new inventory row and its "added" ledger entry. The
// user's fridge is created on first use. The row is linked to a catalog
// product by barcode, falling back to an exact name match.
func (s *FridgeService) AddItem(ctx context.Context, userID int64, input AddItemInput) (*domain.Item, error) {
	label := strings.TrimSpace(input.Label)
	if label == "" {
		return nil, fmt.Errorf("label is required: %w", domain.ErrInvalidInput)
	}
	if input.Amount <= 0 || math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) {
		return nil, domain.ErrInvalidAmount
	}
	unit, err := units.ParseUnit(input.Unit)
	if err != nil {
		return nil, err
	}

	fridge, err := s.fridges.GetActiveByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if fridge == nil {
		if fridge, err = s.fridges.Create(ctx, userID, ""); err != nil {
			return nil, err
		}
		s.logger.Info("fridge created", "owner_id", userID, "fridge_id", fridge.ID)
	}

	product, err := s.products.FindByBarcode(ctx, input.Barcode)
	if err != nil {
		return nil, err
	}
	if product == nil {
		if product, err = s.products.FindByName(ctx, label); err != nil {
			return nil, err
		}
	}

	item := &domain.Item{
		FridgeID:  fridge.ID,
		Label:     label,
		Quantity:  input.Amount,
		Unit:      unit,
		ExpiresOn: input.ExpiresOn,
		Source:    "manual",
		AddedBy:   &userID,
	}
	if product != nil {
		item.ProductID = &product.ID
	}

	// A row must not join a lot of another unit family; that sum would be
	// meaningless. Checked here, at the only place rows are born.
	if err := s.checkLotFamily(ctx, item, unit); err != nil {
		return nil, err
	}

	created, err := s.items.Create(ctx, item, &domain.HistoryEntry{
		OperationID: uuid.NewString(),
		Kind:        domain.EventAdded,
		Quantity:    input.Amount,
		Unit:        unit,
		Comment:     "Item added",
		UserID:      &userID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item added", "item_id", created.ID, "fridge_id", fridge.ID,
		"amount", input.Amount, "unit", string(unit))
	return created, nil
}

func (s *FridgeService) checkLotFamily(ctx context.Context, item *domain.Item, unit units.Unit) error {
	members, err := s.items.ListLotMembers(ctx, item)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	newFamily, err := units.FamilyOf(unit)
	if err != nil {
		return err
	}
	lotFamily, err := units.FamilyOf(members[0].Unit)
	if err != nil {
		return err
	}
	if newFamily != lotFamily {
		return fmt.Errorf("%s does not fit a %s lot: %w", newFamily, lotFamily, domain.ErrUnitConflict)
	}
	return nil
}

// Consume reduces the lot that itemID represents by amount, expressed in the
// unit the lot is currently displayed in. The reduction is spread across the
// lot's rows in ascending id order; exhausted rows are soft-deleted; every
// touched row gets a ledger entry. All of it commits atomically or not at all.
func (s *FridgeService) Consume(ctx context.Context, userID, itemID int64, amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return domain.ErrInvalidAmount
	}

	item, err := s.ownedActiveItem(ctx, userID, itemID)
	if err != nil {
		return err
	}

	// Live rows, fixed order. Never trust a total computed earlier.
	rows, err := s.items.ListLotMembers(ctx, item)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrLotNotFound
	}

	family, err := units.FamilyOf(rows[0].Unit)
	if err != nil {
		return err
	}

	var totalBase int64
	for _, row := range rows {
		base, f, err := units.ToBase(row.Quantity, row.Unit)
		if err != nil {
			return fmt.Errorf("row %d: %w", row.ID, err)
		}
		if f != family {
			return fmt.Errorf("row %d: %w", row.ID, domain.ErrUnitConflict)
		}
		totalBase += base
	}

	// The caller saw the lot in its display unit; that is the unit the
	// amount arrives in.
	_, displayUnit := units.ToDisplay(totalBase, family)
	requestBase, _, err := units.ToBase(amount, displayUnit)
	if err != nil {
		return err
	}
	if requestBase <= 0 {
		return domain.ErrInvalidAmount
	}
	if requestBase > totalBase {
		return fmt.Errorf("requested %d of %d base units: %w", requestBase, totalBase, domain.ErrInsufficientQuantity)
	}

	operationID := uuid.NewString()
	remaining := requestBase
	ops := make([]store.ConsumeOp, 0, len(rows))

	for _, row := range rows {
		if remaining <= 0 {
			break
		}

		rowBase, _, err := units.ToBase(row.Quantity, row.Unit)
		if err != nil {
			return err
		}
		take := min(remaining, rowBase)
		if take == 0 {
			continue
		}

		// Back to the row's own unit; the sum of takes stays exact because
		// the split is done entirely in base units.
		delta, err := units.FromBase(take, row.Unit)
		if err != nil {
			return err
		}

		ops = append(ops, store.ConsumeOp{
			ItemID:     row.ID,
			Delta:      delta,
			SoftDelete: row.Quantity-delta <= exhaustionEpsilon,
			DeletedBy:  userID,
			Entry: domain.HistoryEntry{
				ItemID:      row.ID,
				OperationID: operationID,
				Kind:        domain.EventConsumed,
				Quantity:    delta,
				Unit:        row.Unit,
				Comment:     fmt.Sprintf("Consumed %v %s", delta, row.Unit),
				UserID:      &userID,
			},
		})
		remaining -= take
	}

	if err := s.items.ApplyConsumption(ctx, ops); err != nil {
		return err
	}

	s.logger.Info("lot consumed", "operation_id", operationID, "item_id", itemID,
		"user_id", userID, "amount", amount, "unit", string(displayUnit), "rows_touched", len(ops))
	return nil
}

// Discard soft-deletes one row, or with wholeLot the row's entire lot, and
// writes one ledger entry per row in a single transaction.
func (s *FridgeService) Discard(ctx context.Context, userID, itemID int64, wholeLot bool) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrItemNotFound
	}
	if !item.Active() {
		return domain.ErrAlreadyDeleted
	}
	if err := s.checkOwnership(ctx, userID, item); err != nil {
		return err
	}

	targets := []*domain.Item{item}
	comment := "Item discarded"
	if wholeLot {
		if targets, err = s.items.ListLotMembers(ctx, item); err != nil {
			return err
		}
		comment = "Lot discarded"
	}

	operationID := uuid.NewString()
	ops := make([]store.DiscardOp, 0, len(targets))
	for _, row := range targets {
		ops = append(ops, store.DiscardOp{
			ItemID:    row.ID,
			DeletedBy: userID,
			Entry: domain.HistoryEntry{
				ItemID:      row.ID,
				OperationID: operationID,
				Kind:        domain.EventDiscarded,
				Quantity:    row.Quantity,
				Unit:        row.Unit,
				Comment:     comment,
				UserID:      &userID,
			},
		})
	}

	if err := s.items.Discard(ctx, ops); err != nil {
		return err
	}

	s.logger.Info("discarded", "operation_id", operationID, "item_id", itemID,
		"user_id", userID, "whole_lot", wholeLot, "rows", len(ops))
	return nil
}

// ItemHistory returns a row's ledger, newest first, after an ownership check.
func (s *FridgeService) ItemHistory(ctx context.Context, userID, itemID int64) ([]*domain.HistoryEntry, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	if err := s.checkOwnership(ctx, userID, item); err != nil {
		return nil, err
	}
	return s.history.ListByItem(ctx, itemID)
}

// UserHistory returns every ledger entry the user produced, newest first.
func (s *FridgeService) UserHistory(ctx context.Context, userID int64) ([]*domain.HistoryEntry, error) {
	return s.history.ListByUser(ctx, userID)
}

// LastOperation returns the user's most recent ledger entry, or nil.
func (s *FridgeService) LastOperation(ctx context.Context, userID int64) (*domain.HistoryEntry, error) {
	return s.history.LastByUser(ctx, userID)
}

// SuggestRecipes asks the configured model for recipes based on the user's
// current lots. With fewer than two lots there is nothing to cook from and
// an empty result is returned without calling the model.
func (s *FridgeService) SuggestRecipes(ctx context.Context, userID int64, today time.Time, extra string) (*chef.Result, error) {
	if s.suggester == nil {
		return nil, errors.New("recipe suggestions are not configured")
	}

	views, err := s.ListLots(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	count := chef.RecipeCount(len(views))
	if count == 0 {
		return &chef.Result{}, nil
	}

	pantry := make([]chef.PantryItem, 0, len(views))
	for _, v := range views {
		p := chef.PantryItem{Name: v.Name, Amount: v.Amount, Unit: string(v.Unit)}
		if v.ExpiresOn != nil {
			p.ExpiresOn = v.ExpiresOn.Format(time.DateOnly)
		}
		pantry = append(pantry, p)
	}

	s.logger.Info("requesting recipes", "user_id", userID, "lots", len(pantry), "count", count)
	return s.suggester.Suggest(ctx, chef.BuildPrompt(pantry, count, extra))
}

func (s *FridgeService) ownedActiveItem(ctx context.Context, userID, itemID int64) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || !item.Active() {
		return nil, domain.ErrItemNotFound
	}
	if err := s.checkOwnership(ctx, userID, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *FridgeService) checkOwnership(ctx context.Context, userID int64, item *domain.Item) error {
	fridge, err := s.fridges.GetByID(ctx, item.FridgeID)
	if err != nil {
		return err
	}
	if fridge == nil {
		return fmt.Errorf("fridge %d is gone: %w", item.FridgeID, domain.ErrItemNotFound)
	}
	if fridge.OwnerID != userID {
		return domain.ErrUnauthorized
	}
	return nil
}
