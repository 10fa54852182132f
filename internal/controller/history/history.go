package history

import (
	"context"

	"github.com/zhouzirui/carbon-tracker/webclient/internal/model/emission"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/service/dispatch"
	"github.com/zhouzirui/carbon-tracker/webclient/internal/view"
)

const (
	// ActionRecent narrows the list to the last 30 days.
	ActionRecent dispatch.Action = "recent"
	// ActionAll reloads the full history.
	ActionAll dispatch.Action = "all"

	RegionList = "history-list"
	ItemClass  = "history-item"

	EmptyMessage = "No emission history found. Log your daily emissions to see them here!"
)

var itemTemplate = view.NewTemplate("history-item", `<strong>📅 Date: {{.Date}}</strong><br>
<p><strong>Total Emissions: {{num .Total}} kg CO2</strong></p>
<ul>
  <li>🚗 Transport: {{num .TransportEm}} kg CO2 ({{num .Distance}} km by {{.Mode}})</li>
  <li>💡 Energy: {{num .EnergyEm}} kg CO2 ({{num .KWh}} kWh)</li>
  <li>🥗 Diet: {{num .DietEm}} kg CO2 ({{num .Meals}} meals, {{.Diet}} diet)</li>
</ul>`)

// Client lists stored days.
type Client interface {
	History(ctx context.Context) ([]emission.HistoryEntry, error)
	RecentHistory(ctx context.Context) ([]emission.HistoryEntry, error)
}

// Controller fills the history list on load and on demand.
type Controller struct {
	client Client
}

func New(client Client) *Controller {
	return &Controller{client: client}
}

// Actions implements dispatch.Controller.
func (c *Controller) Actions() map[dispatch.Action]dispatch.Handler {
	return map[dispatch.Action]dispatch.Handler{
		ActionAll: func(ctx context.Context, v *view.View, _ dispatch.Input) error {
			return c.Load(ctx, v)
		},
		ActionRecent: c.recent,
	}
}

// Load implements dispatch.Loader.
func (c *Controller) Load(ctx context.Context, v *view.View) error {
	entries, err := c.client.History(ctx)
	if err != nil {
		return err
	}
	return render(v, entries)
}

func (c *Controller) recent(ctx context.Context, v *view.View, _ dispatch.Input) error {
	entries, err := c.client.RecentHistory(ctx)
	if err != nil {
		return err
	}
	return render(v, entries)
}

// render replaces the list with one block per entry in the order received.
// Nothing is written unless every entry renders.
func render(v *view.View, entries []emission.HistoryEntry) error {
	if len(entries) == 0 {
		v.Replace(RegionList, view.Text("", EmptyMessage))
		return nil
	}

	blocks := make([]view.Block, 0, len(entries))
	for _, entry := range entries {
		block, err := view.Fragment(itemTemplate, ItemClass, entry)
		if err != nil {
			return err
		}
		blocks = append(blocks, block)
	}
	v.Replace(RegionList, blocks...)
	return nil
}
