package models

import "time"

// DocumentAnalysis — сохранённый результат анализа документа.
// Degraded = true означает, что ответ модели не удалось разобрать
// и сохранён фиксированный резервный результат.
type DocumentAnalysis struct {
	ID        string         `json:"id"`
	UserUID   string         `json:"user_uid"`
	FileName  string         `json:"file_name"`
	Text      string         `json:"-"`
	Analysis  AnalysisResult `json:"analysis"`
	Degraded  bool           `json:"degraded"`
	CreatedAt time.Time      `json:"created_at"`
}

// AnalysisResult — структура, которую модель должна вернуть в JSON.
type AnalysisResult struct {
	Score           int      `json:"score"`
	DocumentType    string   `json:"document_type"`
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
	RiskLevel       string   `json:"risk_level"`
}

// FallbackAnalysis возвращает фиксированный резервный результат,
// сохраняемый при нечитаемом ответе модели.
func FallbackAnalysis() AnalysisResult {
	return AnalysisResult{
		Score:        75,
		DocumentType: "Legal Document",
		Summary:      "The document was processed, but a detailed automated review is temporarily unavailable.",
		Strengths:    []string{"Document structure appears standard"},
		Weaknesses:   []string{"Automated review could not assess specific clauses"},
		Recommendations: []string{
			"Have the document reviewed by a qualified lawyer",
		},
		RiskLevel: "medium",
	}
}
