package i18n

import "testing"

func TestTurkishIsDefault(t *testing.T) {
	p := New("")
	if got := p.Text(EmailNotFound); got != "Email Adresi Bulunamadı!" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestEnglish(t *testing.T) {
	p := New("en-US")
	if got := p.Text(SessionExpired); got != "Your session has expired!" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestArguments(t *testing.T) {
	p := New("tr")
	want := "Sayfa Kullanıma Kapalı! \nDashboardComponent"
	if got := p.Text(PageDisabled, "DashboardComponent"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUnknownLanguageFallsBackToTurkish(t *testing.T) {
	p := New("xx-invalid-tag!!")
	if got := p.Text(InvalidToken); got != "Geçersiz Token!" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestZeroPrinter(t *testing.T) {
	var p Printer
	if got := p.Text(Unauthorized); got != "Yetkiniz Yok!" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestModuleRestrictionKeysMatchTheirModule(t *testing.T) {
	p := New("tr")
	if got := p.Text(FacilityModuleRestricted); got != "Tesis Modülüne Sadece Rolü Tesis Olanlar Girebilir!" {
		t.Fatalf("facility restriction text %q", got)
	}
	if got := p.Text(AdminModuleRestricted); got != "Admin Modülüne Sadece Rolü Admin Olanlar Girebilir!" {
		t.Fatalf("admin restriction text %q", got)
	}
}
