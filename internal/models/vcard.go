package models

import "strings"

// VCard контактные данные для кодирования в QR
type VCard struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Website      string `json:"website"`
}

// String формирует текст vCard 3.0. Пустые необязательные поля пропускаются.
func (v VCard) String() string {
	lines := []string{"BEGIN:VCARD", "VERSION:3.0", "FN:" + v.Name}
	if v.Organization != "" {
		lines = append(lines, "ORG:"+v.Organization)
	}
	if v.Phone != "" {
		lines = append(lines, "TEL:"+v.Phone)
	}
	if v.Email != "" {
		lines = append(lines, "EMAIL:"+v.Email)
	}
	if v.Website != "" {
		lines = append(lines, "URL:"+v.Website)
	}
	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\n")
}
