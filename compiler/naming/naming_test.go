package naming_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/schemac/compiler/naming"
	"github.com/syssam/schemac/schema"
)

func TestNames(t *testing.T) {
	c := naming.NewContext(0)
	assert.Equal(t, "pk_users_id", c.PrimaryKey("users", []string{"id"}))
	assert.Equal(t, "fk_orders_user_id", c.ForeignKey("orders", []string{"user_id"}))
	assert.Equal(t, "uq_users_first_last", c.Unique("users", []string{"first", "last"}))
	assert.Equal(t, "ck_items_qty_gte_0", c.Bound("items", "qty", schema.Gte, "0"))
	assert.Equal(t, "ck_items_qty_lte_100", c.Bound("items", "qty", schema.Lte, "100"))
	assert.Equal(t, "ck_items_price_gt_m1_5", c.Bound("items", "price", schema.Gt, "-1.5"))
	assert.Equal(t, "ck_items_state_in", c.Bound("items", "state", schema.In, ""))
	assert.Equal(t, "users_id_seq", c.Sequence("users", "id"))
	assert.Equal(t, "users_status_enum", c.EnumType("users", "status"))
	assert.Equal(t, "order_items_id", strings.TrimPrefix(c.PrimaryKey("OrderItems", []string{"id"}), "pk_"))
}

func TestCheckHash(t *testing.T) {
	c := naming.NewContext(0)
	a := c.Check("items", "(qty > 0) AND (qty < 10)")
	b := c.Check("items", "(qty > 0) AND (qty < 10)")
	other := c.Check("items", "(qty > 1)")
	assert.Equal(t, a, b, "stable")
	assert.NotEqual(t, a, other)
	assert.True(t, strings.HasPrefix(a, "ck_items_"))
	assert.Len(t, a, len("ck_items_")+8)
}

func TestIndexCollision(t *testing.T) {
	c := naming.NewContext(0)
	assert.Equal(t, "idx_t_a_b", c.Index("t", []string{"a", "b"}))
	assert.Equal(t, "idx_t_a_b_1", c.Index("t", []string{"a", "b"}))
	assert.Equal(t, "idx_t_a_b_2", c.Index("t", []string{"a", "b"}))
	assert.Equal(t, "idx_t_c", c.Index("t", []string{"c"}))

	// A fresh context does not see the previous run.
	assert.Equal(t, "idx_t_a_b", naming.NewContext(0).Index("t", []string{"a", "b"}))
}

func TestScopeClaim(t *testing.T) {
	c := naming.NewContext(0)
	s := c.Scope()
	assert.Equal(t, "ck_t_qty_gte_0", s.Claim("ck_t_qty_gte_0"))
	assert.Equal(t, "ck_t_qty_gte_0_1", s.Claim("ck_t_qty_gte_0"))
	assert.Equal(t, "ck_t_qty_gte_0_2", s.Claim("ck_t_qty_gte_0"))
	// Scopes are independent.
	assert.Equal(t, "ck_t_qty_gte_0", c.Scope().Claim("ck_t_qty_gte_0"))
}

func TestFit(t *testing.T) {
	c := naming.NewContext(30)
	long := c.ForeignKey("customer_subscriptions", []string{"billing_address_id"})
	assert.LessOrEqual(t, len(long), 30)
	assert.True(t, strings.HasPrefix(long, "fk_customer_"))
	assert.Equal(t, long, naming.NewContext(30).ForeignKey("customer_subscriptions", []string{"billing_address_id"}))
	assert.Equal(t, "fk_a_b", c.ForeignKey("a", []string{"b"}))
}

func TestOperand(t *testing.T) {
	assert.Equal(t, "100", naming.Operand("100"))
	assert.Equal(t, "m5", naming.Operand("-5"))
	assert.Equal(t, "9_99", naming.Operand("9.99"))
	assert.Equal(t, "abc", naming.Operand("'ABC'"))
}
