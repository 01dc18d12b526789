package dto

import "campus-assist-api/internal/domain/entity"

// LanguageResponse is one supported language.
type LanguageResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// LanguageListResponse lists the supported languages.
type LanguageListResponse struct {
	Languages []*LanguageResponse `json:"languages"`
	Pivot     string              `json:"pivot"`
}

// ToLanguageListResponse builds the supported-language listing.
func ToLanguageListResponse() *LanguageListResponse {
	langs := make([]*LanguageResponse, 0, len(entity.SupportedLanguages))
	for _, l := range entity.SupportedLanguages {
		langs = append(langs, &LanguageResponse{
			Code: l.Code,
			Name: l.Name,
		})
	}
	return &LanguageListResponse{
		Languages: langs,
		Pivot:     entity.PivotLanguage,
	}
}
