// Package i18n holds the user-facing notices of the panel in Turkish and English.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a notice. The key text is also the English fallback.
type Key string

const (
	SessionExpired           Key = "Your session has expired!"
	InvalidToken             Key = "Invalid token!"
	NoConnection             Key = "You have no internet connection"
	Unauthorized             Key = "You are not authorized!"
	GenericFailure           Key = "An error occurred!"
	EmailExists              Key = "Email address is already registered!"
	EmailNotFound            Key = "Email address not found!"
	InvalidPassword          Key = "Your password is wrong!"
	UserDisabled             Key = "User is not active!"
	OperationNotAllowed      Key = "User login is disabled!"
	TooManyAttempts          Key = "Logins from this device are blocked!"
	PageNotFound             Key = "Page not found!"
	PageDisabled             Key = "Page is disabled! \n%s"
	NoViewPermission         Key = "You are not allowed to view this page! \n%s"
	FacilityModuleRestricted Key = "Only users with the facility role can enter the facility module!"
	AdminModuleRestricted    Key = "Only users with the admin role can enter the admin module!"
	CodeAttemptsExceeded     Key = "You entered the verification code wrong 3 times!"
	CodeSent                 Key = "Verification code sent"
	LoginSucceeded           Key = "Login successful"
)

var turkish = map[Key]string{
	SessionExpired:           "Oturum Süreniz Sona Erdi!",
	InvalidToken:             "Geçersiz Token!",
	NoConnection:             "İnternet bağlantınız yok",
	Unauthorized:             "Yetkiniz Yok!",
	GenericFailure:           "Hata Oluştu!",
	EmailExists:              "Email Adresi Zaten Kayıtlı!",
	EmailNotFound:            "Email Adresi Bulunamadı!",
	InvalidPassword:          "Parolanız Yanlış!",
	UserDisabled:             "Kullanıcı Aktif Değil!",
	OperationNotAllowed:      "Kullanıcı Girişi Kapalı!",
	TooManyAttempts:          "Bu Cihaz ile Girişler Kapatıldı!",
	PageNotFound:             "Sayfayı Bulunamadı!",
	PageDisabled:             "Sayfa Kullanıma Kapalı! \n%s",
	NoViewPermission:         "Sayfayı Görüntülüme Yetkiniz Yok! \n%s",
	FacilityModuleRestricted: "Tesis Modülüne Sadece Rolü Tesis Olanlar Girebilir!",
	AdminModuleRestricted:    "Admin Modülüne Sadece Rolü Admin Olanlar Girebilir!",
	CodeAttemptsExceeded:     "Doğrulama Kodunu 3 Kere Yanlış Girdiniz!",
	CodeSent:                 "Doğrulama Kodu Gönderildi",
	LoginSucceeded:           "Giriş Başarılı",
}

var cat = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, tr := range turkish {
		_ = b.SetString(language.Turkish, string(key), tr)
		_ = b.SetString(language.English, string(key), string(key))
	}
	return b
}

// Printer renders notices in one language.
type Printer struct {
	p *message.Printer
}

// New returns a Printer for a BCP 47 tag such as "tr" or "en". Unknown or empty
// tags fall back to Turkish, the panel's default language.
func New(lang string) Printer {
	tag := language.Turkish
	if lang = strings.TrimSpace(lang); lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			matcher := language.NewMatcher([]language.Tag{language.Turkish, language.English})
			tag, _, _ = matcher.Match(parsed)
		}
	}
	return Printer{p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Text renders key with optional arguments.
func (p Printer) Text(key Key, args ...any) string {
	if p.p == nil {
		return New("").Text(key, args...)
	}
	return p.p.Sprintf(string(key), args...)
}
