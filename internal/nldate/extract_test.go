package nldate

import (
	"testing"
	"time"
)

func TestExtractTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 10, 37, 0, 0, time.UTC)

	tests := []struct {
		name         string
		text         string
		wantHour     int
		wantMinute   int
		wantExplicit bool
		wantResidual string
	}{
		{
			name:         "colon separator",
			text:         "reunião 15:30",
			wantHour:     15,
			wantMinute:   30,
			wantExplicit: true,
			wantResidual: "reunião",
		},
		{
			name:         "h separator with minutes",
			text:         "consulta 15h30",
			wantHour:     15,
			wantMinute:   30,
			wantExplicit: true,
			wantResidual: "consulta",
		},
		{
			name:         "bare hour",
			text:         "dentista amanhã às 15h",
			wantHour:     15,
			wantMinute:   0,
			wantExplicit: true,
			wantResidual: "dentista amanhã às",
		},
		{
			name:         "horas suffix",
			text:         "tomar remédio 8 horas",
			wantHour:     8,
			wantMinute:   0,
			wantExplicit: true,
			wantResidual: "tomar remédio",
		},
		{
			name:         "afternoon marker adds twelve",
			text:         "consulta 3h da tarde",
			wantHour:     15,
			wantMinute:   0,
			wantExplicit: true,
			wantResidual: "consulta da tarde",
		},
		{
			name:         "evening marker adds twelve",
			text:         "jantar às 8h da noite",
			wantHour:     20,
			wantMinute:   0,
			wantExplicit: true,
			wantResidual: "jantar às da noite",
		},
		{
			name:         "noon with morning marker becomes midnight",
			text:         "12h da manhã",
			wantHour:     0,
			wantMinute:   0,
			wantExplicit: true,
			wantResidual: "da manhã",
		},
		{
			name:         "amanhã is not a morning marker",
			text:         "remédio amanhã 12h",
			wantHour:     12,
			wantMinute:   0,
			wantExplicit: true,
			wantResidual: "remédio amanhã",
		},
		{
			name:         "slash date is not a time",
			text:         "pagar boleto 10/01",
			wantHour:     10,
			wantMinute:   37,
			wantExplicit: false,
			wantResidual: "pagar boleto 10/01",
		},
		{
			name:         "no time defaults to now",
			text:         "comprar pão hoje",
			wantHour:     10,
			wantMinute:   37,
			wantExplicit: false,
			wantResidual: "comprar pão hoje",
		},
		{
			name:         "out of range hour is ignored",
			text:         "codinome 25h",
			wantHour:     10,
			wantMinute:   37,
			wantExplicit: false,
			wantResidual: "codinome 25h",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			residual, xt := ExtractTime(tt.text, now)

			if xt.Hour != tt.wantHour || xt.Minute != tt.wantMinute {
				t.Errorf("got %02d:%02d, want %02d:%02d", xt.Hour, xt.Minute, tt.wantHour, tt.wantMinute)
			}
			if xt.Explicit != tt.wantExplicit {
				t.Errorf("got explicit=%v, want %v", xt.Explicit, tt.wantExplicit)
			}
			if residual != tt.wantResidual {
				t.Errorf("got residual %q, want %q", residual, tt.wantResidual)
			}
		})
	}
}
