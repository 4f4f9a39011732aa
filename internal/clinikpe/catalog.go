package clinikpe

import (
	"context"
	"errors"
)

// CatalogKind names a lab catalog collection.
type CatalogKind string

const (
	KindTests      CatalogKind = "test"
	KindPanels     CatalogKind = "test-panel"
	KindPackages   CatalogKind = "test-package"
	KindCategories CatalogKind = "test-category"
	KindUnits      CatalogKind = "unit"
)

const routeLab = "/organization/{org}/center/{center}/lab/"

// ErrInvalidReorder is returned for a reorder without a moved item.
var ErrInvalidReorder = errors.New("clinikpe: reorder requires the moved item uid")

func catalogRoute(kind CatalogKind) string { return routeLab + string(kind) }

func catalogItemRoute(kind CatalogKind) string { return routeLab + string(kind) + "/{id}" }

func listCatalog[T any](ctx context.Context, c *Client, s Scope, kind CatalogKind, q ListQuery) (*Page[T], error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	return list[T](ctx, c, get(catalogRoute(kind), s.OrgID, s.CenterID), q)
}

// saveCatalog creates when id is empty and updates otherwise.
func saveCatalog[T any](ctx context.Context, c *Client, s Scope, kind CatalogKind, id string, in any) (*T, error) {
	if err := s.requireCenter(); err != nil {
		return nil, err
	}
	if id == "" {
		return fetch[T](ctx, c, post(catalogRoute(kind), s.OrgID, s.CenterID).JSON(in))
	}
	return fetch[T](ctx, c, put(catalogItemRoute(kind), s.OrgID, s.CenterID, id).JSON(in))
}

func (c *Client) deleteCatalog(ctx context.Context, s Scope, kind CatalogKind, id string) error {
	if err := s.requireCenter(); err != nil {
		return err
	}
	_, err := exec(ctx, c, del(catalogItemRoute(kind), s.OrgID, s.CenterID, id))
	return err
}

func (c *Client) reorder(ctx context.Context, s Scope, kind CatalogKind, move Reorder) error {
	if err := s.requireCenter(); err != nil {
		return err
	}
	if move.UID == "" {
		return ErrInvalidReorder
	}
	_, err := exec(ctx, c, patch(catalogRoute(kind)+"/reorder", s.OrgID, s.CenterID).JSON(move))
	return err
}

func (c *Client) ListLabTests(ctx context.Context, s Scope, q ListQuery) (*Page[LabTest], error) {
	return listCatalog[LabTest](ctx, c, s, KindTests, q)
}

func (c *Client) CreateLabTest(ctx context.Context, s Scope, in LabTestInput) (*LabTest, error) {
	return saveCatalog[LabTest](ctx, c, s, KindTests, "", in)
}

func (c *Client) UpdateLabTest(ctx context.Context, s Scope, id string, in LabTestInput) (*LabTest, error) {
	return saveCatalog[LabTest](ctx, c, s, KindTests, id, in)
}

func (c *Client) DeleteLabTest(ctx context.Context, s Scope, id string) error {
	return c.deleteCatalog(ctx, s, KindTests, id)
}

func (c *Client) ListPanels(ctx context.Context, s Scope, q ListQuery) (*Page[TestPanel], error) {
	return listCatalog[TestPanel](ctx, c, s, KindPanels, q)
}

func (c *Client) CreatePanel(ctx context.Context, s Scope, in CatalogInput) (*TestPanel, error) {
	return saveCatalog[TestPanel](ctx, c, s, KindPanels, "", in)
}

func (c *Client) UpdatePanel(ctx context.Context, s Scope, id string, in CatalogInput) (*TestPanel, error) {
	return saveCatalog[TestPanel](ctx, c, s, KindPanels, id, in)
}

func (c *Client) DeletePanel(ctx context.Context, s Scope, id string) error {
	return c.deleteCatalog(ctx, s, KindPanels, id)
}

// ReorderPanel moves a panel to directly after move.AfterUID.
func (c *Client) ReorderPanel(ctx context.Context, s Scope, move Reorder) error {
	return c.reorder(ctx, s, KindPanels, move)
}

func (c *Client) ListPackages(ctx context.Context, s Scope, q ListQuery) (*Page[TestPackage], error) {
	return listCatalog[TestPackage](ctx, c, s, KindPackages, q)
}

func (c *Client) CreatePackage(ctx context.Context, s Scope, in CatalogInput) (*TestPackage, error) {
	return saveCatalog[TestPackage](ctx, c, s, KindPackages, "", in)
}

func (c *Client) UpdatePackage(ctx context.Context, s Scope, id string, in CatalogInput) (*TestPackage, error) {
	return saveCatalog[TestPackage](ctx, c, s, KindPackages, id, in)
}

func (c *Client) DeletePackage(ctx context.Context, s Scope, id string) error {
	return c.deleteCatalog(ctx, s, KindPackages, id)
}

func (c *Client) ListCategories(ctx context.Context, s Scope, q ListQuery) (*Page[TestCategory], error) {
	return listCatalog[TestCategory](ctx, c, s, KindCategories, q)
}

func (c *Client) CreateCategory(ctx context.Context, s Scope, in CatalogInput) (*TestCategory, error) {
	return saveCatalog[TestCategory](ctx, c, s, KindCategories, "", in)
}

func (c *Client) UpdateCategory(ctx context.Context, s Scope, id string, in CatalogInput) (*TestCategory, error) {
	return saveCatalog[TestCategory](ctx, c, s, KindCategories, id, in)
}

func (c *Client) DeleteCategory(ctx context.Context, s Scope, id string) error {
	return c.deleteCatalog(ctx, s, KindCategories, id)
}

// ReorderCategory moves a category to directly after move.AfterUID.
func (c *Client) ReorderCategory(ctx context.Context, s Scope, move Reorder) error {
	return c.reorder(ctx, s, KindCategories, move)
}

func (c *Client) ListUnits(ctx context.Context, s Scope, q ListQuery) (*Page[Unit], error) {
	return listCatalog[Unit](ctx, c, s, KindUnits, q)
}

func (c *Client) CreateUnit(ctx context.Context, s Scope, in CatalogInput) (*Unit, error) {
	return saveCatalog[Unit](ctx, c, s, KindUnits, "", in)
}

func (c *Client) UpdateUnit(ctx context.Context, s Scope, id string, in CatalogInput) (*Unit, error) {
	return saveCatalog[Unit](ctx, c, s, KindUnits, id, in)
}

func (c *Client) DeleteUnit(ctx context.Context, s Scope, id string) error {
	return c.deleteCatalog(ctx, s, KindUnits, id)
}
