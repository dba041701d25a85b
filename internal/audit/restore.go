package audit

import (
	"strings"

	"github.com/pagewarden/pagewarden/internal/model"
	"github.com/pagewarden/pagewarden/internal/util"
)

// RestoreTranslations puts translation fields back onto filtered findings
// that lost them during the merge pass. The filter agent is free to rewrite
// problematic_text while merging, which would otherwise orphan the original
// translation, so the lookup runs in two levels: a normalized text key for
// the common preserved-wording case, then a (page, type) key for the
// paraphrased case. Mutates and returns filtered.
func RestoreTranslations(filtered, originals []model.Violation) []model.Violation {
	byText := make(map[string]model.Violation)
	byPageType := make(map[string]model.Violation)
	for _, o := range originals {
		if o.Translation == "" {
			continue
		}
		if key := util.NormalizeMatchKey(o.ProblematicText); key != "" {
			if _, exists := byText[key]; !exists {
				byText[key] = o
			}
		}
		if key := pageTypeKey(o); key != "" {
			if _, exists := byPageType[key]; !exists {
				byPageType[key] = o
			}
		}
	}

	for i := range filtered {
		if filtered[i].Translation != "" {
			continue
		}
		source, ok := byText[util.NormalizeMatchKey(filtered[i].ProblematicText)]
		if !ok {
			source, ok = byPageType[pageTypeKey(filtered[i])]
		}
		if !ok {
			continue
		}
		filtered[i].Translation = source.Translation
		if filtered[i].RewriteTranslation == "" {
			filtered[i].RewriteTranslation = source.RewriteTranslation
		}
		if filtered[i].ChunkLanguage == "" {
			filtered[i].ChunkLanguage = source.ChunkLanguage
		}
	}
	return filtered
}

func pageTypeKey(v model.Violation) string {
	vtype := strings.ToLower(strings.TrimSpace(v.ViolationType))
	if vtype == "" {
		return ""
	}
	return v.PageNumber.String() + "|" + vtype
}
