package service

import (
	"readinglog/internal/models"
	"readinglog/internal/repository"
)

func strPtr(s string) *string { return &s }

// DefaultWordLists is the starter material created on an empty store and by
// the admin reset.
func DefaultWordLists() []repository.NewWordList {
	return []repository.NewWordList{
		{
			Name:        "基本単語セット1",
			Description: strPtr("ひらがな・カタカナの基本単語"),
			Words: []string{
				"あめ", "かさ", "いぬ", "ねこ", "ほん",
				"つくえ", "えんぴつ", "ノート", "カバン", "くつした",
			},
		},
	}
}

// DefaultFonts are the fonts offered before any custom upload
func DefaultFonts() []models.Font {
	font := func(name, family string, t models.FontType) models.Font {
		return models.Font{Name: name, FontFamily: family, FontType: t, IsActive: true}
	}
	return []models.Font{
		font("BIZ UDPゴシック", "'BIZ UDPGothic', sans-serif", models.FontTypeWebfont),
		font("BIZ UDP明朝", "'BIZ UDPMincho', serif", models.FontTypeWebfont),
		font("OpenDyslexic", "'OpenDyslexic', sans-serif", models.FontTypeWebfont),
		font("Lexend", "'Lexend', sans-serif", models.FontTypeWebfont),
		font("UD デジタル 教科書体 NK-R", "'UD デジタル 教科書体 NK-R', sans-serif", models.FontTypeSystem),
		font("Arial", "Arial, sans-serif", models.FontTypeSystem),
		font("Verdana", "Verdana, sans-serif", models.FontTypeSystem),
		font("Comic Sans MS", "'Comic Sans MS', cursive", models.FontTypeSystem),
		font("游ゴシック", "'Yu Gothic', 'YuGothic', sans-serif", models.FontTypeSystem),
		font("メイリオ", "Meiryo, sans-serif", models.FontTypeSystem),
	}
}
