package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cosmikids/mandala/internal/chart"
)

func TestParseChartFile(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantPlanets  int
		wantHouses   int
		wantPersonal bool
		wantErr      bool
	}{
		{
			name: "bare provider response",
			content: `{
				"planets": [
					{"name": "Sol", "sign": "Cáncer", "full_degree": 100.5, "norm_degree": 10.5},
					{"name": "Luna", "sign": "Sagitario", "full_degree": 250.1, "norm_degree": 10.1}
				],
				"houses": [
					{"house": 1, "sign": "Aries", "degree": 15},
					{"house": 2, "sign": "Tauro", "degree": 45}
				],
				"ascendant": 15
			}`,
			wantPlanets: 2,
			wantHouses:  2,
		},
		{
			name: "render document",
			content: `{
				"personal": {
					"name": "Lucía Pérez",
					"birthDate": "13 de Julio de 2019",
					"birthPlace": "Sevilla",
					"sunSign": "Cancer",
					"moonSign": "Sagittarius",
					"ascendantSign": "Aries"
				},
				"horoscope": {
					"planets": [{"name": "Sun", "sign": "Cancer", "full_degree": 100, "norm_degree": 10}],
					"houses": []
				}
			}`,
			wantPlanets:  1,
			wantPersonal: true,
		},
		{
			name: "planet without full degree",
			content: `{
				"planets": [{"name": "Node", "sign": "Leo", "norm_degree": 3}]
			}`,
			wantPlanets: 1,
		},
		{
			name:    "invalid json",
			content: `{invalid json`,
			wantErr: true,
		},
		{
			name:    "empty chart",
			content: `{"ascendant": 15}`,
			wantErr: true,
		},
		{
			name:    "wrong field type",
			content: `{"planets": [{"name": "Sun", "full_degree": "north"}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			chartPath := filepath.Join(tmpDir, "chart.json")
			if err := os.WriteFile(chartPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to create test chart file: %v", err)
			}

			got, err := ParseChartFile(context.Background(), chartPath)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChartFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			if len(got.Horoscope.Planets) != tt.wantPlanets {
				t.Errorf("ParseChartFile() got %d planets, want %d", len(got.Horoscope.Planets), tt.wantPlanets)
			}
			if len(got.Horoscope.Houses) != tt.wantHouses {
				t.Errorf("ParseChartFile() got %d houses, want %d", len(got.Horoscope.Houses), tt.wantHouses)
			}
			if (got.Personal != nil) != tt.wantPersonal {
				t.Errorf("ParseChartFile() personal = %v, want present %v", got.Personal, tt.wantPersonal)
			}
		})
	}
}

func TestParseChart_EmptyChart(t *testing.T) {
	_, err := ParseChart([]byte(`{"planets": [], "houses": []}`))
	if !errors.Is(err, ErrNoChartData) {
		t.Errorf("ParseChart() error = %v, want ErrNoChartData", err)
	}
}

func TestParseChartFile_ContextCancellation(t *testing.T) {
	chartPath := filepath.Join(t.TempDir(), "chart.json")
	if err := os.WriteFile(chartPath, []byte(`{"planets": []}`), 0644); err != nil {
		t.Fatalf("Failed to create test chart file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseChartFile(ctx, chartPath)
	if err != context.Canceled {
		t.Errorf("ParseChartFile() with cancelled context got error = %v, want context.Canceled", err)
	}
}

func TestParseChartFile_NonExistentFile(t *testing.T) {
	_, err := ParseChartFile(context.Background(), "/nonexistent/path/chart.json")
	if err == nil {
		t.Error("ParseChartFile() with non-existent file should return error")
	}
}

func TestChartFile_PersonalFor(t *testing.T) {
	bare, err := ParseChart([]byte(`{
		"planets": [
			{"name": "Sun", "sign": "Cancer", "full_degree": 100},
			{"name": "Moon", "sign": "Sagittarius", "full_degree": 250}
		],
		"houses": [{"sign": "Aries", "degree": 15}]
	}`))
	if err != nil {
		t.Fatalf("ParseChart() error = %v", err)
	}

	got := bare.PersonalFor(chart.Birth{Name: "Lucía", Day: 13, Month: 7, Year: 2019})
	if got.SunSign != "Cancer" || got.MoonSign != "Sagittarius" || got.AscendantSign != "Aries" {
		t.Errorf("PersonalFor() signs = %s/%s/%s, want Cancer/Sagittarius/Aries", got.SunSign, got.MoonSign, got.AscendantSign)
	}
	if got.BirthDate != "13 de Julio de 2019" {
		t.Errorf("PersonalFor() birth date = %q", got.BirthDate)
	}
	if got.BirthPlace != "Madrid" {
		t.Errorf("PersonalFor() birth place = %q, want Madrid", got.BirthPlace)
	}

	wrapped := &ChartFile{Personal: &chart.PersonalData{Name: "Ana"}, Horoscope: bare.Horoscope}
	if got := wrapped.PersonalFor(chart.Birth{Name: "Lucía"}); got.Name != "Ana" {
		t.Errorf("PersonalFor() name = %q, want the document's own text block", got.Name)
	}
}
