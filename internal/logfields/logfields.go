package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyUser       = "user"
	KeyRecipeID   = "recipe_id"
	KeyListID     = "list_id"
	KeyIngredient = "ingredient"
	KeyProvider   = "provider"
	KeySource     = "source"
	KeyQuery      = "query"
	KeyUPC        = "upc"
	KeyFDCID      = "fdc_id"
	KeyDurationMS = "duration_ms"
	KeyStatus     = "status"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func User(u string) slog.Attr          { return slog.String(KeyUser, u) }
func RecipeID(id string) slog.Attr     { return slog.String(KeyRecipeID, id) }
func ListID(id string) slog.Attr       { return slog.String(KeyListID, id) }
func Ingredient(name string) slog.Attr { return slog.String(KeyIngredient, name) }
func Provider(p string) slog.Attr      { return slog.String(KeyProvider, p) }
func Source(s string) slog.Attr        { return slog.String(KeySource, s) }
func Query(q string) slog.Attr         { return slog.String(KeyQuery, q) }
func UPC(code string) slog.Attr        { return slog.String(KeyUPC, code) }
func FDCID(id int) slog.Attr           { return slog.Int(KeyFDCID, id) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Status(s string) slog.Attr        { return slog.String(KeyStatus, s) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
