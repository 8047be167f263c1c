package models

import "gorm.io/datatypes"

// Storage column names. Postgres folds unquoted identifiers to lower case, so
// the table created by earlier deployments carries these exact names.
const (
	ProjectsTable            = "projects"
	ColumnTitle              = "title"
	ColumnCategory           = "category"
	ColumnImage              = "image"
	ColumnAlt                = "alt"
	ColumnDashboardURL       = "dashboardurl"
	ColumnCodeURL            = "codeurl"
	ColumnDescription        = "description"
	ColumnTech               = "tech"
	ColumnFeatured           = "featured"
	ColumnClicksDashboardURL = "clicks_dashboardurl"
	ColumnClicksCodeURL      = "clicks_codeurl"
)

// ProjectRow is the storage shape of the projects table
type ProjectRow struct {
	Title              string         `gorm:"column:title;type:text;primaryKey"`
	Category           *string        `gorm:"column:category;type:text"`
	Image              *string        `gorm:"column:image;type:text"`
	Alt                *string        `gorm:"column:alt;type:text"`
	DashboardURL       *string        `gorm:"column:dashboardurl;type:text"`
	CodeURL            *string        `gorm:"column:codeurl;type:text"`
	Description        *string        `gorm:"column:description;type:text"`
	Tech               datatypes.JSON `gorm:"column:tech;type:jsonb"`
	Featured           bool           `gorm:"column:featured;not null;default:false"`
	ClicksDashboardURL int64          `gorm:"column:clicks_dashboardurl;not null;default:0"`
	ClicksCodeURL      int64          `gorm:"column:clicks_codeurl;not null;default:0"`
}

func (ProjectRow) TableName() string { return ProjectsTable }

// ClickColumn returns the counter column incremented for a click target.
func ClickColumn(target ClickTarget) (string, bool) {
	switch target {
	case ClickDashboard:
		return ColumnClicksDashboardURL, true
	case ClickCode:
		return ColumnClicksCodeURL, true
	}
	return "", false
}

// ContentColumns returns the mutable content columns of p keyed by storage
// column name. Featured and click counters are excluded.
func (p Project) ContentColumns() map[string]any {
	return map[string]any{
		ColumnCategory:     p.Category,
		ColumnImage:        p.Image,
		ColumnAlt:          p.Alt,
		ColumnDashboardURL: p.DashboardURL,
		ColumnCodeURL:      p.CodeURL,
		ColumnDescription:  p.Description,
		ColumnTech:         p.Tech.JSON(),
	}
}
