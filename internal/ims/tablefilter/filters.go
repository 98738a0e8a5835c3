package tablefilter

import (
	"context"

	"github.com/bitfantasy/nimo-ims/internal/ims/status"
)

func statusChoices(table status.Table) []Choice {
	var choices []Choice
	for _, key := range table.Keys() {
		code, _ := table.Lookup(key)
		choices = append(choices, Choice{Value: code.Key, Label: code.Label})
	}
	return choices
}

func boolFilter(key, label string) Descriptor {
	return Descriptor{Key: key, Label: label, Type: TypeBool}
}

func (r *Registry) stockFilters(ctx context.Context) map[string]Descriptor {
	filters := map[string]Descriptor{
		"active":       boolFilter("active", "Active parts"),
		"assembly":     boolFilter("assembly", "Assembled parts"),
		"allocated":    boolFilter("allocated", "Is allocated"),
		"available":    boolFilter("available", "Available stock"),
		"cascade":      boolFilter("cascade", "Include sublocations"),
		"depleted":     boolFilter("depleted", "Depleted"),
		"in_stock":     boolFilter("in_stock", "In stock"),
		"is_building":  boolFilter("is_building", "In production"),
		"serialized":   boolFilter("serialized", "Is serialized"),
		"batch":        {Key: "batch", Label: "Batch code", Type: TypeChoice},
		"status": {
			Key:     "status",
			Label:   "Stock status",
			Type:    TypeChoice,
			Choices: statusChoices(status.StockCodes),
		},
		"has_purchase_price": boolFilter("has_purchase_price", "Has purchase price"),
		"updated_before":     {Key: "updated_before", Label: "Updated before", Type: TypeDate},
		"updated_after":      {Key: "updated_after", Label: "Updated after", Type: TypeDate},
	}

	// 库存过期跟踪停用时不提供过期筛选
	if r.flags.StockExpiryEnabled(ctx) {
		filters["expired"] = boolFilter("expired", "Expired")
		filters["stale"] = boolFilter("stale", "Stale")
		filters["expiry_before"] = Descriptor{Key: "expiry_before", Label: "Expired before", Type: TypeDate}
		filters["expiry_after"] = Descriptor{Key: "expiry_after", Label: "Expired after", Type: TypeDate}
	}

	return filters
}

func (r *Registry) stockLocationFilters(ctx context.Context) map[string]Descriptor {
	return map[string]Descriptor{
		"cascade":    boolFilter("cascade", "Include sublocations"),
		"structural": boolFilter("structural", "Structural"),
		"external":   boolFilter("external", "External"),
		"location_type": {
			Key:         "location_type",
			Label:       "Location type",
			Type:        TypeChoice,
			LoadChoices: r.source.LocationTypes,
		},
		"has_location_type": boolFilter("has_location_type", "Has location type"),
	}
}

func (r *Registry) partFilters(ctx context.Context) map[string]Descriptor {
	return map[string]Descriptor{
		"active":       boolFilter("active", "Active"),
		"assembly":     boolFilter("assembly", "Assembly"),
		"cascade":      boolFilter("cascade", "Include subcategories"),
		"component":    boolFilter("component", "Component"),
		"has_ipn":      boolFilter("has_ipn", "Has IPN"),
		"has_stock":    boolFilter("has_stock", "In stock"),
		"low_stock":    boolFilter("low_stock", "Low stock"),
		"purchaseable": boolFilter("purchaseable", "Purchasable"),
		"salable":      boolFilter("salable", "Salable"),
		"trackable":    boolFilter("trackable", "Trackable"),
		"virtual":      boolFilter("virtual", "Virtual"),
		"is_template":  boolFilter("is_template", "Is template"),
		"is_variant":   boolFilter("is_variant", "Is variant"),
	}
}

func (r *Registry) bomFilters(ctx context.Context) map[string]Descriptor {
	return map[string]Descriptor{
		"sub_part_assembly": boolFilter("sub_part_assembly", "Assembled part"),
		"available_stock":   boolFilter("available_stock", "Has available stock"),
		"on_order":          boolFilter("on_order", "On order"),
		"validated":         boolFilter("validated", "Validated"),
		"inherited":         boolFilter("inherited", "Gets inherited"),
		"allow_variants":    boolFilter("allow_variants", "Allow variant stock"),
		"optional":          boolFilter("optional", "Optional"),
		"consumable":        boolFilter("consumable", "Consumable"),
		"has_pricing":       boolFilter("has_pricing", "Has pricing"),
	}
}

func (r *Registry) usedInFilters(ctx context.Context) map[string]Descriptor {
	return map[string]Descriptor{
		"inherited":      boolFilter("inherited", "Gets inherited"),
		"optional":       boolFilter("optional", "Optional"),
		"part_active":    boolFilter("part_active", "Active"),
		"part_trackable": boolFilter("part_trackable", "Trackable"),
	}
}

func (r *Registry) buildFilters(ctx context.Context) map[string]Descriptor {
	filters := map[string]Descriptor{
		"active":         boolFilter("active", "Active"),
		"overdue":        boolFilter("overdue", "Overdue"),
		"assigned_to_me": boolFilter("assigned_to_me", "Assigned to me"),
		"status": {
			Key:     "status",
			Label:   "Build status",
			Type:    TypeChoice,
			Choices: statusChoices(status.BuildCodes),
		},
		"assigned_to": {
			Key:         "assigned_to",
			Label:       "Responsible",
			Type:        TypeChoice,
			LoadChoices: r.source.Owners,
		},
	}
	r.addProjectCodeFilters(ctx, filters)
	return filters
}

func (r *Registry) purchaseOrderFilters(ctx context.Context) map[string]Descriptor {
	return r.orderFilters(ctx, statusChoices(status.PurchaseOrderCodes))
}

func (r *Registry) salesOrderFilters(ctx context.Context) map[string]Descriptor {
	return r.orderFilters(ctx, statusChoices(status.SalesOrderCodes))
}

func (r *Registry) returnOrderFilters(ctx context.Context) map[string]Descriptor {
	return r.orderFilters(ctx, statusChoices(status.ReturnOrderCodes))
}

func (r *Registry) salesOrderAllocationFilters(ctx context.Context) map[string]Descriptor {
	return map[string]Descriptor{
		"outstanding": boolFilter("outstanding", "Outstanding allocations"),
	}
}

// orderFilters 各类订单共用的筛选器，状态筛选项由各订单类型的状态表提供
func (r *Registry) orderFilters(ctx context.Context, statusChoices []Choice) map[string]Descriptor {
	filters := map[string]Descriptor{
		"outstanding":    boolFilter("outstanding", "Outstanding"),
		"overdue":        boolFilter("overdue", "Overdue"),
		"assigned_to_me": boolFilter("assigned_to_me", "Assigned to me"),
		"created_before": {Key: "created_before", Label: "Created before", Type: TypeDate},
		"created_after":  {Key: "created_after", Label: "Created after", Type: TypeDate},
		"target_before":  {Key: "target_before", Label: "Target date before", Type: TypeDate},
		"target_after":   {Key: "target_after", Label: "Target date after", Type: TypeDate},
		"status": {
			Key:     "status",
			Label:   "Order status",
			Type:    TypeChoice,
			Choices: statusChoices,
		},
		"assigned_to": {
			Key:         "assigned_to",
			Label:       "Responsible",
			Type:        TypeChoice,
			LoadChoices: r.source.Owners,
		},
	}
	r.addProjectCodeFilters(ctx, filters)
	return filters
}

// addProjectCodeFilters 项目编码启用时追加相关筛选器
func (r *Registry) addProjectCodeFilters(ctx context.Context, filters map[string]Descriptor) {
	if !r.flags.ProjectCodesEnabled(ctx) {
		return
	}
	filters["has_project_code"] = boolFilter("has_project_code", "Has project code")
	filters["project_code"] = Descriptor{
		Key:         "project_code",
		Label:       "Project code",
		Type:        TypeChoice,
		LoadChoices: r.source.ProjectCodes,
	}
}
