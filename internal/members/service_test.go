package members

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopbooks/coopbooks/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAdd_AssignsSequentialIDs(t *testing.T) {
	svc := NewService(nil)

	a, err := svc.Add(model.Member{Name: "Amina", Active: true})
	require.NoError(t, err)
	assert.Equal(t, "M-0001", a.ID)
	assert.Equal(t, model.RoleMember, a.Role)

	b, err := svc.Add(model.Member{Name: "Brian", Role: model.RoleTreasurer})
	require.NoError(t, err)
	assert.Equal(t, "M-0002", b.ID)
	assert.Equal(t, model.RoleTreasurer, b.Role)

	_, err = svc.Add(model.Member{ID: "M-0001", Name: "Dup"})
	assert.Error(t, err)

	_, err = svc.Add(model.Member{})
	assert.Error(t, err)
}

func TestAdjustSavings(t *testing.T) {
	svc := NewService([]model.Member{{ID: "M-0001", Name: "Amina", SavingsBalance: dec("100")}})

	bal, err := svc.AdjustSavings("M-0001", dec("50"))
	require.NoError(t, err)
	assert.Equal(t, "150.00", bal.StringFixed(2))

	_, err = svc.AdjustSavings("M-0001", dec("-200"))
	assert.ErrorIs(t, err, ErrInsufficientSavings)
	m, _ := svc.Get("M-0001")
	assert.Equal(t, "150.00", m.SavingsBalance.StringFixed(2), "failed withdrawal leaves balance untouched")

	_, err = svc.AdjustSavings("M-9999", dec("1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustShares(t *testing.T) {
	svc := NewService([]model.Member{{ID: "M-0001", Name: "Amina"}})

	bal, err := svc.AdjustShares("M-0001", dec("20000"))
	require.NoError(t, err)
	assert.Equal(t, "20000.00", bal.StringFixed(2))

	_, err = svc.AdjustShares("M-0001", dec("-30000"))
	assert.Error(t, err)
}

func TestTotals(t *testing.T) {
	svc := NewService([]model.Member{
		{ID: "M-0001", ShareBalance: dec("1000"), SavingsBalance: dec("250.25")},
		{ID: "M-0002", ShareBalance: dec("500"), SavingsBalance: dec("49.75")},
	})
	shares, savings := svc.Totals()
	assert.Equal(t, "1500.00", shares.StringFixed(2))
	assert.Equal(t, "300.00", savings.StringFixed(2))

	shares, savings = Totals(nil)
	assert.True(t, shares.IsZero())
	assert.True(t, savings.IsZero())
}

func TestSorted(t *testing.T) {
	in := []model.Member{{ID: "M-0003"}, {ID: "M-0001"}, {ID: "M-0002"}}
	out := Sorted(in)
	assert.Equal(t, "M-0001", out[0].ID)
	assert.Equal(t, "M-0003", out[2].ID)
	assert.Equal(t, "M-0003", in[0].ID, "input is not reordered")
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	joined := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService([]model.Member{
		{ID: "M-0001", Name: "Amina, Jr.", Role: model.RoleOfficer, ShareBalance: dec("20000"), SavingsBalance: dec("1500.5"), JoinedAt: joined, Active: true},
		{ID: "M-0002", Name: "Brian", Role: model.RoleMember},
	})
	require.NoError(t, svc.Save(dir))

	got, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, got.All(), 2)

	m, ok := got.Get("M-0001")
	require.True(t, ok)
	assert.Equal(t, "Amina, Jr.", m.Name)
	assert.Equal(t, model.RoleOfficer, m.Role)
	assert.True(t, m.ShareBalance.Equal(dec("20000")))
	assert.True(t, m.SavingsBalance.Equal(dec("1500.50")))
	assert.True(t, m.JoinedAt.Equal(joined))
	assert.True(t, m.Active)

	m2, _ := got.Get("M-0002")
	assert.False(t, m2.Active)
	assert.True(t, m2.JoinedAt.IsZero())
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	svc, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, svc.All())
}

func TestUnmarshalMember_Errors(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("member_id,name,role,share_balance,savings_balance,joined_at,active\n")
	buf.WriteString("M-0001,A,member,abc,0,,true\n")
	_, err := ReadMembers(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share_balance")

	_, err = UnmarshalMember([]string{"M-0001", "A", "member", "0", "0", "03/01/2024", "true"})
	assert.Error(t, err)
	_, err = UnmarshalMember([]string{"M-0001"})
	assert.Error(t, err)
}
