package gridstore

// SheetInfo is one named sheet in the local grid: the stable numeric id
// plus the optional closed-ledger marker.
type SheetInfo struct {
	Title       string `gorm:"primaryKey"`
	SheetID     int64  `gorm:"not null;uniqueIndex"`
	MarkerKey   string `gorm:""`
	MarkerValue string `gorm:""`
}

func (SheetInfo) TableName() string { return "sheet_infos" }

// Cell is one stored grid cell. Kind discriminates the loose typing of
// spreadsheet cells: "n" for numbers, "s" for text. Blank cells are simply
// absent.
type Cell struct {
	Sheet       string  `gorm:"primaryKey"`
	RowIndex    int     `gorm:"primaryKey;autoIncrement:false"`
	ColumnIndex int     `gorm:"primaryKey;autoIncrement:false"`
	Kind        string  `gorm:"not null"`
	Text        string  `gorm:""`
	Number      float64 `gorm:""`
}

func (Cell) TableName() string { return "cells" }

const (
	cellKindNumber = "n"
	cellKindText   = "s"
)
