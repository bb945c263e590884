package ors

import "freight-quote-service/internal/platform/schema"

var geocodeSchema = schema.MustCompile("ors.geocode", `{
  "type": "object",
  "required": ["features"],
  "properties": {
    "features": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["geometry"],
        "properties": {
          "geometry": {
            "type": "object",
            "required": ["coordinates"],
            "properties": {
              "coordinates": {
                "type": "array",
                "minItems": 2,
                "items": {"type": "number"}
              }
            }
          },
          "properties": {"type": "object"}
        }
      }
    }
  }
}`)

var directionsSchema = schema.MustCompile("ors.directions", `{
  "type": "object",
  "required": ["routes"],
  "properties": {
    "routes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["summary"],
        "properties": {
          "summary": {
            "type": "object",
            "required": ["distance"],
            "properties": {
              "distance": {"type": "number", "exclusiveMinimum": 0},
              "duration": {"type": "number", "minimum": 0}
            }
          },
          "geometry": {"type": "string"},
          "extras": {"type": "object"}
        }
      }
    }
  }
}`)
