package legal_test

import (
	"encoding/json"
	"github.com/myrjola/casefile/internal/legal"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	table, err := legal.Default()
	require.NoError(t, err)
	require.NotEmpty(t, table.Sections())

	s, ok := table.Lookup("IPC", "354D")
	require.True(t, ok)
	require.Equal(t, "Stalking", s.Title)

	var decoded []legal.Section
	out, err := table.PromptJSON()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Equal(t, table.Sections(), decoded)
}

func TestTable_CanonicalAct(t *testing.T) {
	table, err := legal.Load(strings.NewReader(`
- {act: IPC, section: "354", title: Outraging modesty}
- {act: IT Act, section: "66E", title: Violation of privacy}
- {act: POCSO, section: "4", title: Penetrative sexual assault}
`))
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{in: "IPC", want: "IPC"},
		{in: "I.P.C.", want: "IPC"},
		{in: "ipc", want: "IPC"},
		{in: " it act ", want: "IT Act"},
		{in: "ITAct", want: "IT Act"},
		{in: "POSCO", want: "POCSO"},
		{in: "Motor Vehicles Act", want: "Motor Vehicles Act"},
		{in: "CrPC", want: "CrPC"},
		{in: "CPC", want: "CPC"},
		{in: "IPX", want: "IPX"},
		{in: "I.T. Act", want: "IT Act"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, table.CanonicalAct(tt.in))
		})
	}

	_, ok := table.Lookup("i.p.c", "354")
	require.True(t, ok)
	_, ok = table.Lookup("IPC", "302")
	require.False(t, ok)
}

func TestLoad_rejectsIncompleteEntries(t *testing.T) {
	_, err := legal.Load(strings.NewReader(`- {act: IPC, title: Missing number}`))
	require.Error(t, err)
	_, err = legal.Load(strings.NewReader(`not: [a list`))
	require.Error(t, err)
}
