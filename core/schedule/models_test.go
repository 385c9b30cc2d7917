package schedule

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRecurrenceAppliesTo(t *testing.T) {
	tests := []struct {
		recurrence Recurrence
		parity     Recurrence
		want       bool
	}{
		{RecurrenceEvery, RecurrenceUpper, true},
		{RecurrenceEvery, RecurrenceLower, true},
		{RecurrenceUpper, RecurrenceUpper, true},
		{RecurrenceUpper, RecurrenceLower, false},
		{RecurrenceLower, RecurrenceLower, true},
		{RecurrenceLower, RecurrenceUpper, false},
	}
	for _, tt := range tests {
		if got := tt.recurrence.AppliesTo(tt.parity); got != tt.want {
			t.Errorf("%v.AppliesTo(%v) = %v, want %v", tt.recurrence, tt.parity, got, tt.want)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "08:30", want: NewTimeOfDay(8, 30)},
		{in: "00:00", want: NewTimeOfDay(0, 0)},
		{in: "23:59", want: NewTimeOfDay(23, 59)},
		{in: "10:10:00", want: NewTimeOfDay(10, 10)}, // Postgres TIME format
		{in: "25:00", wantErr: true},
		{in: "8h30", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	if got := NewTimeOfDay(8, 5).String(); got != "08:05" {
		t.Errorf("String() = %q, want %q", got, "08:05")
	}
	if got := NewTimeOfDay(14, 30).String(); got != "14:30" {
		t.Errorf("String() = %q, want %q", got, "14:30")
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	data, err := json.Marshal(NewTimeOfDay(9, 45))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"09:45"` {
		t.Errorf("Marshal() = %s, want %q", data, `"09:45"`)
	}

	var tod TimeOfDay
	if err = json.Unmarshal([]byte(`"16:20"`), &tod); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if tod != NewTimeOfDay(16, 20) {
		t.Errorf("Unmarshal() = %v, want %v", tod, NewTimeOfDay(16, 20))
	}

	if err = json.Unmarshal([]byte(`"not a time"`), &tod); err == nil {
		t.Error("Unmarshal() of malformed time succeeded, want error")
	}
}

func TestTimeOfDayScan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    TimeOfDay
		wantErr bool
	}{
		{name: "string", value: "11:30:00", want: NewTimeOfDay(11, 30)},
		{name: "bytes", value: []byte("07:15"), want: NewTimeOfDay(7, 15)},
		{name: "time", value: time.Date(2000, 1, 1, 13, 40, 0, 0, time.UTC), want: NewTimeOfDay(13, 40)},
		{name: "unsupported type", value: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tod TimeOfDay
			err := tod.Scan(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err == nil && tod != tt.want {
				t.Errorf("Scan(%v) = %v, want %v", tt.value, tod, tt.want)
			}
		})
	}

	v, err := NewTimeOfDay(11, 30).Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v != "11:30" {
		t.Errorf("Value() = %v, want %q", v, "11:30")
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2026, time.March, 10, 17, 45, 33, 12, time.UTC)
	want := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	if got := DateOnly(in); !got.Equal(want) {
		t.Errorf("DateOnly() = %s, want %s", got, want)
	}
}

func TestWeekStartOf(t *testing.T) {
	monday := time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
	}{
		{"monday itself", monday},
		{"wednesday", monday.AddDate(0, 0, 2)},
		{"sunday", monday.AddDate(0, 0, 6)},
		{"monday with time of day", monday.Add(15 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStartOf(tt.date); !got.Equal(monday) {
				t.Errorf("WeekStartOf(%s) = %s, want %s", tt.date, got, monday)
			}
		})
	}
}
