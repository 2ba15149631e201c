package charts

// ChartJS returns the Chart.js configuration for c. The dashboard stores it in
// a datastar signal and hands it to `new Chart(canvas, config)` unchanged.
func (c Chart) ChartJS() map[string]any {
	datasets := make([]map[string]any, 0, len(c.Datasets))
	for _, ds := range c.Datasets {
		entry := map[string]any{
			"label":           ds.Label,
			"borderColor":     ds.Color,
			"backgroundColor": ds.Color,
		}
		if len(ds.Colors) > 0 {
			entry["backgroundColor"] = ds.Colors
			entry["borderColor"] = ds.Colors
		}

		if c.Kind == KindScatter {
			points := make([]map[string]float64, 0, len(ds.Points))
			for _, p := range ds.Points {
				points = append(points, map[string]float64{"x": p.X, "y": p.Y})
			}
			entry["data"] = points
			entry["pointRadius"] = 3
		} else {
			data := ds.Data
			if data == nil {
				data = []float64{}
			}
			entry["data"] = data
		}

		if c.Kind == KindLine {
			entry["fill"] = false
			entry["pointRadius"] = 4
			entry["tension"] = 0
		}
		datasets = append(datasets, entry)
	}

	xScale := map[string]any{"title": axisTitle(c.XLabel)}
	yScale := map[string]any{"title": axisTitle(c.YLabel)}
	if c.Stacked {
		xScale["stacked"] = true
		yScale["stacked"] = true
	}
	if c.LogY {
		yScale["type"] = "logarithmic"
	}
	if c.Kind == KindScatter {
		xScale["type"] = "linear"
	}

	options := map[string]any{
		"responsive":          true,
		"maintainAspectRatio": false,
		"animation":           false,
		"plugins": map[string]any{
			"title":  map[string]any{"display": true, "text": c.Title},
			"legend": map[string]any{"display": len(c.Datasets) > 1},
		},
		"scales": map[string]any{"x": xScale, "y": yScale},
	}
	if c.Horizontal {
		options["indexAxis"] = "y"
	}

	data := map[string]any{"datasets": datasets}
	if c.Kind != KindScatter {
		labels := c.Labels
		if labels == nil {
			labels = []string{}
		}
		data["labels"] = labels
	}

	return map[string]any{
		"type":    string(c.Kind),
		"data":    data,
		"options": options,
	}
}

func axisTitle(text string) map[string]any {
	return map[string]any{"display": text != "", "text": text}
}
