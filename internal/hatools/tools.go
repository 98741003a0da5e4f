// Package hatools defines the Home Assistant intent tools exposed to the
// model during benchmarking. Definitions mirror HA's built-in intents; the
// model sees them in the request but they are never executed.
package hatools

import "fmt"

// Tier names for the exposed tool set.
const (
	TierMVP  = "mvp"  // 7 core + 4 utility = 11 tools
	TierFull = "full" // mvp + media (9) + household (9) + utility (2) = 31 tools
)

// Tool describes one intent tool: name, description, and a JSON schema for
// its input object.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

func strProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func intProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func numProp(description string) map[string]any {
	return map[string]any{"type": "number", "description": description}
}

func strArrayProp(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}

func objectSchema(properties map[string]any) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	return map[string]any{"type": "object", "properties": properties}
}

// entitySlots are the common targeting slots shared by on/off style intents.
func entitySlots() map[string]any {
	return map[string]any{
		"name":         strProp("Name of the entity"),
		"area":         strProp("Name of the area"),
		"floor":        strProp("Name of the floor"),
		"domain":       strArrayProp("Domain of the entity"),
		"device_class": strArrayProp("Device class of the entity"),
	}
}

func mediaSlots() map[string]any {
	return map[string]any{
		"name": strProp("Name of the media player"),
		"area": strProp("Name of the area"),
	}
}

func mvpTools() []Tool {
	return []Tool{
		{
			Name:        "HassTurnOn",
			Description: "Turns on/opens a device or entity",
			InputSchema: objectSchema(entitySlots()),
		},
		{
			Name:        "HassTurnOff",
			Description: "Turns off/closes a device or entity",
			InputSchema: objectSchema(entitySlots()),
		},
		{
			Name:        "HassLightSet",
			Description: "Sets the brightness or color of a light",
			InputSchema: objectSchema(map[string]any{
				"name":       strProp("Name of the entity"),
				"area":       strProp("Name of the area"),
				"floor":      strProp("Name of the floor"),
				"brightness": intProp("Brightness percentage from 0 to 100"),
				"color":      strProp("Name of color"),
			}),
		},
		{
			Name:        "HassSetPosition",
			Description: "Sets the position of an entity",
			InputSchema: objectSchema(map[string]any{
				"name":         strProp("Name of the entity"),
				"area":         strProp("Name of the area"),
				"floor":        strProp("Name of the floor"),
				"domain":       strArrayProp("Domain of the entity"),
				"device_class": strArrayProp("Device class of the entity"),
				"position":     intProp("Position from 0 to 100"),
			}),
		},
		{
			Name:        "HassGetState",
			Description: "Gets or checks the state of an entity",
			InputSchema: objectSchema(map[string]any{
				"name":         strProp("Name of the entity"),
				"area":         strProp("Name of the area"),
				"floor":        strProp("Name of the floor"),
				"domain":       strArrayProp("Domain of the entity"),
				"device_class": strArrayProp("Device class of the entity"),
				"state":        strProp("Name of state to match"),
			}),
		},
		{
			Name:        "HassClimateSetTemperature",
			Description: "Sets the desired indoor temperature",
			InputSchema: objectSchema(map[string]any{
				"name":        strProp("Name of the entity"),
				"area":        strProp("Name of the area"),
				"floor":       strProp("Name of the floor"),
				"temperature": numProp("Temperature in degrees"),
			}),
		},
		{
			Name:        "HassClimateGetTemperature",
			Description: "Gets the actual indoor temperature",
			InputSchema: objectSchema(map[string]any{
				"name":  strProp("Name of the entity"),
				"area":  strProp("Name of the area"),
				"floor": strProp("Name of the floor"),
			}),
		},
		{
			Name:        "HassGetCurrentTime",
			Description: "Gets the current time",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "HassGetCurrentDate",
			Description: "Gets the current date",
			InputSchema: objectSchema(nil),
		},
		{
			Name:        "HassGetWeather",
			Description: "Gets the current weather",
			InputSchema: objectSchema(map[string]any{
				"name": strProp("Name of the weather entity"),
			}),
		},
		{
			Name:        "HassNevermind",
			Description: "Cancels the current request",
			InputSchema: objectSchema(nil),
		},
	}
}

func mediaTools() []Tool {
	return []Tool{
		{
			Name:        "HassMediaPause",
			Description: "Pauses a media player",
			InputSchema: objectSchema(mediaSlots()),
		},
		{
			Name:        "HassMediaUnpause",
			Description: "Unpauses a media player",
			InputSchema: objectSchema(mediaSlots()),
		},
		{
			Name:        "HassMediaNext",
			Description: "Skips to the next item on a media player",
			InputSchema: objectSchema(mediaSlots()),
		},
		{
			Name:        "HassMediaPrevious",
			Description: "Skips to the previous item on a media player",
			InputSchema: objectSchema(mediaSlots()),
		},
		{
			Name:        "HassSetVolume",
			Description: "Sets the volume of a media player",
			InputSchema: objectSchema(map[string]any{
				"name":         strProp("Name of the media player"),
				"area":         strProp("Name of the area"),
				"volume_level": intProp("Volume level from 0 to 100"),
			}),
		},
		{
			Name:        "HassMediaPlayerMute",
			Description: "Mutes a media player",
			InputSchema: objectSchema(map[string]any{
				"name": strProp("Name of the media player"),
			}),
		},
		{
			Name:        "HassMediaPlayerUnmute",
			Description: "Unmutes a media player",
			InputSchema: objectSchema(map[string]any{
				"name": strProp("Name of the media player"),
			}),
		},
		{
			Name:        "HassSetVolumeRelative",
			Description: "Increases or decreases the volume of a media player",
			InputSchema: objectSchema(map[string]any{
				"name":        strProp("Name of the media player"),
				"area":        strProp("Name of the area"),
				"floor":       strProp("Name of the floor"),
				"volume_step": intProp("Volume step from -100 to 100 (negative to decrease)"),
			}),
		},
		{
			Name:        "HassMediaSearchAndPlay",
			Description: "Searches for and plays media on a media player",
			InputSchema: objectSchema(map[string]any{
				"name":         strProp("Name of the media player"),
				"area":         strProp("Name of the area"),
				"search_query": strProp("Search query for the media to play"),
				"media_class":  strProp("Type of media (album, artist, track, playlist, etc.)"),
			}),
		},
	}
}

func householdTools() []Tool {
	return []Tool{
		{
			Name:        "HassFanSetSpeed",
			Description: "Sets the speed of a fan",
			InputSchema: objectSchema(map[string]any{
				"name":       strProp("Name of the fan"),
				"area":       strProp("Name of the area"),
				"floor":      strProp("Name of the floor"),
				"percentage": intProp("Fan speed percentage from 0 to 100"),
			}),
		},
		{
			Name:        "HassVacuumStart",
			Description: "Starts a vacuum cleaner",
			InputSchema: objectSchema(map[string]any{
				"name":  strProp("Name of the vacuum"),
				"area":  strProp("Name of the area"),
				"floor": strProp("Name of the floor"),
			}),
		},
		{
			Name:        "HassVacuumReturnToBase",
			Description: "Returns a vacuum cleaner to its base",
			InputSchema: objectSchema(map[string]any{
				"name": strProp("Name of the vacuum"),
				"area": strProp("Name of the area"),
			}),
		},
		{
			Name:        "HassLawnMowerStartMowing",
			Description: "Starts a lawn mower",
			InputSchema: objectSchema(map[string]any{
				"name": strProp("Name of the lawn mower"),
			}),
		},
		{
			Name:        "HassLawnMowerDock",
			Description: "Sends a lawn mower to its dock",
			InputSchema: objectSchema(map[string]any{
				"name": strProp("Name of the lawn mower"),
			}),
		},
		{
			Name:        "HassListAddItem",
			Description: "Adds an item to a todo list",
			InputSchema: objectSchema(map[string]any{
				"item": strProp("The item to add to the list"),
				"name": strProp("Name of the todo list"),
			}),
		},
		{
			Name:        "HassListCompleteItem",
			Description: "Checks off an item on a todo list",
			InputSchema: objectSchema(map[string]any{
				"item": strProp("The item to check off"),
				"name": strProp("Name of the todo list"),
			}),
		},
		{
			Name:        "HassShoppingListAddItem",
			Description: "Adds an item to the shopping list",
			InputSchema: objectSchema(map[string]any{
				"item": strProp("The item to add to the shopping list"),
			}),
		},
		{
			Name:        "HassShoppingListCompleteItem",
			Description: "Checks off an item on the shopping list",
			InputSchema: objectSchema(map[string]any{
				"item": strProp("The item to check off"),
			}),
		},
	}
}

func utilityTools() []Tool {
	return []Tool{
		{
			Name:        "HassRespond",
			Description: "Returns a response to the user without taking any action",
			InputSchema: objectSchema(map[string]any{
				"response": strProp("The response text to return"),
			}),
		},
		{
			Name:        "HassBroadcast",
			Description: "Announces a message on other voice satellites",
			InputSchema: objectSchema(map[string]any{
				"message": strProp("The message to broadcast"),
			}),
		},
	}
}

// ForTier returns the tool definitions for a tier.
func ForTier(tier string) ([]Tool, error) {
	switch tier {
	case TierMVP:
		return mvpTools(), nil
	case TierFull:
		out := mvpTools()
		out = append(out, mediaTools()...)
		out = append(out, householdTools()...)
		out = append(out, utilityTools()...)
		return out, nil
	default:
		return nil, fmt.Errorf("hatools: unknown tool tier %q", tier)
	}
}

// Names returns the valid tool name set for a tier, for the scorer's
// hallucination check.
func Names(tier string) (map[string]struct{}, error) {
	tools, err := ForTier(tier)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		out[t.Name] = struct{}{}
	}
	return out, nil
}

// QueryToolNames is the fixed set of query-intent tools accepted for the
// query_response category.
func QueryToolNames() map[string]struct{} {
	return map[string]struct{}{
		"HassGetState":              {},
		"HassClimateGetTemperature": {},
		"HassGetWeather":            {},
		"HassGetCurrentTime":        {},
		"HassGetCurrentDate":        {},
	}
}
