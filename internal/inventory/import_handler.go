package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"gestion-stock/internal/api"
	"gestion-stock/internal/database"
	"gestion-stock/internal/models"
	"gestion-stock/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// column order used when the sheet has no header row
var defaultImportColumns = []string{"name", "description", "codeBarres", "categorie", "fabriquant", "seuilAlerte", "quantity"}

var importHeaderAliases = map[string]string{
	"nom":          "name",
	"name":         "name",
	"medicament":   "name",
	"médicament":   "name",
	"description":  "description",
	"code barres":  "codeBarres",
	"code_barres":  "codeBarres",
	"codebarres":   "codeBarres",
	"barcode":      "codeBarres",
	"categorie":    "categorie",
	"catégorie":    "categorie",
	"category":     "categorie",
	"fabriquant":   "fabriquant",
	"fabricant":    "fabriquant",
	"manufacturer": "fabriquant",
	"seuil":        "seuilAlerte",
	"seuil alerte": "seuilAlerte",
	"seuil_alerte": "seuilAlerte",
	"seuilalerte":  "seuilAlerte",
	"quantite":     "quantity",
	"quantité":     "quantity",
	"quantity":     "quantity",
	"stock":        "quantity",
}

// POST /medicins/import (multipart, field "file")
// Rows whose barcode already exists are skipped. Invalid rows are reported by
// line number and do not stop the import.
func ImportMedicinsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Fichier manquant")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Seuls les fichiers .xlsx sont acceptés")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ouverture du fichier impossible")
		}
		defer file.Close()

		xl, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Fichier Excel illisible: "+err.Error())
		}
		defer xl.Close()

		sheets := xl.GetSheetList()
		if len(sheets) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Aucune feuille dans le fichier")
		}
		rows, err := xl.GetRows(sheets[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Feuille illisible: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fichier Excel vide")
		}

		columns, start := importColumns(rows[0])
		owner := ownerOr(c, int64(c.QueryInt("userId")))
		result := api.ImportResult{Errors: map[string]string{}}

		for i := start; i < len(rows); i++ {
			line := fmt.Sprintf("ligne %d", i+1)
			in, empty, err := medicinFromRow(rows[i], columns)
			if empty {
				continue
			}
			if err != nil {
				result.Errors[line] = err.Error()
				continue
			}
			normalizeMedicin(&in)
			if err := validation.Medicin(in).Err(); err != nil {
				result.Errors[line] = err.Error()
				continue
			}

			if in.CodeBarres != nil {
				var count int64
				database.DB.Model(&models.Medicin{}).Where("code_barres = ?", *in.CodeBarres).Count(&count)
				if count > 0 {
					result.Skipped++
					continue
				}
			}

			m := models.Medicin{UserID: owner}
			m.Apply(in)
			err = database.DB.Transaction(func(tx *gorm.DB) error {
				return createMedicin(tx, c, &m)
			})
			if err != nil {
				result.Errors[line] = err.Error()
				continue
			}
			result.Created++
		}

		if len(result.Errors) == 0 {
			result.Errors = nil
		}
		return c.JSON(result)
	}
}

// importColumns detects a header row. Without one, the default column order
// applies and the first row is data.
func importColumns(first []string) ([]string, int) {
	cols := make([]string, len(first))
	known := 0
	for i, cell := range first {
		if field, ok := importHeaderAliases[strings.ToLower(strings.TrimSpace(cell))]; ok {
			cols[i] = field
			known++
		}
	}
	if known == 0 {
		return defaultImportColumns, 0
	}
	return cols, 1
}

func medicinFromRow(row, columns []string) (api.Medicin, bool, error) {
	var m api.Medicin
	empty := true
	for i, cell := range row {
		if i >= len(columns) || columns[i] == "" {
			continue
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		empty = false

		switch columns[i] {
		case "name":
			m.Name = cell
		case "description":
			m.Description = cell
		case "codeBarres":
			m.CodeBarres = api.Ptr(cell)
		case "categorie":
			m.Categorie = api.Ptr(cell)
		case "fabriquant":
			m.Fabriquant = cell
		case "seuilAlerte", "quantity":
			n, err := strconv.Atoi(cell)
			if err != nil {
				return m, false, fmt.Errorf("%s: nombre invalide %q", columns[i], cell)
			}
			if columns[i] == "quantity" {
				m.Quantity = &n
			} else {
				m.SeuilAlerte = &n
			}
		}
	}
	return m, empty, nil
}
