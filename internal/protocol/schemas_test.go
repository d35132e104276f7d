package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	cmdSchema := compile("cmd.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"browser",
	  "capabilities":{"max_queue":8}
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"7f0f0d9e-8d04-4e3c-9a41-1f6dce4b7b6e",
	  "farm_id":"farm_1",
	  "farm_params":{
	    "tick_rate_hz":10,
	    "time_scale":60,
	    "cell_size":2,
	    "base_storage":500,
	    "save_version":"1.0.0",
	    "seed":1337
	  },
	  "catalogs":{
	    "crops":{"digest":"deadbeef","count":6},
	    "equipment":{"digest":"deadbeef","count":8},
	    "attachments":{"digest":"deadbeef","count":3},
	    "buildings":{"digest":"deadbeef","count":4},
	    "livestock":{"digest":"deadbeef","count":4},
	    "plots":{"digest":"deadbeef","count":4}
	  }
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var cmd any
	_ = json.Unmarshal([]byte(`{
	  "type":"CMD",
	  "protocol_version":"1.0",
	  "tick":120,
	  "commands":[
	    {"id":"c1","cmd":"TILL","pos":{"x":0,"y":0,"z":0}},
	    {"id":"c2","cmd":"PLANT","crop_type":"wheat","pos":{"x":0,"y":0,"z":0}},
	    {"id":"c3","cmd":"BUY_SEEDS","crop_type":"wheat","qty":2},
	    {"id":"c4","cmd":"SAVE","slot":"default"}
	  ]
	}`), &cmd)
	validate(cmdSchema, cmd)
}

func TestSchemas_SaveDocument(t *testing.T) {
	p := filepath.Join("..", "..", "schemas", "save.schema.json")
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile save schema: %v", err)
	}

	var doc any
	_ = json.Unmarshal([]byte(`{
	  "version":"1.0.0",
	  "timestamp":1724572800000,
	  "timeData":{"hour":9,"minute":30,"day":3,"season":"Spring","year":1,"timeScale":60},
	  "economyData":{"money":480,"inventory":{"wheat":12},"marketPrices":{"wheat":13},"priceTimer":42.5},
	  "weatherData":{"type":"Rainy","temperature":14.2,"humidity":0.82,"windSpeed":6.1,"timer":120.0},
	  "cropsData":[{"type":"wheat","cell":[0,0],"plantedDay":1,"plantedSeason":"Spring","growthStage":1,"position":{"x":0,"y":0,"z":0}}],
	  "fieldStateData":[{"cell":[0,0],"state":"growing","changedDay":1,"changedSeason":"Spring","cropType":"wheat"}],
	  "farmExpansionData":{"ownedPlots":["starter"]},
	  "equipmentData":{"owned":["basic_tools"]},
	  "attachmentData":[{"vehicleId":"V1","type":"plow"}],
	  "vehicleData":[{"id":"V1","type":"tractor","position":{"x":4,"y":0,"z":2},"rotation":1.2,"fuel":80}],
	  "buildingData":[{"id":"B1","buildingId":"barn","position":{"x":10,"y":0,"z":-6},"rotation":0,"dimensions":{"width":8,"height":6,"depth":6}}],
	  "livestockData":[{"id":"L1","type":"chicken","position":{"x":3,"y":0,"z":3},"bornDay":1,"bornSeason":"Spring","happiness":100,"health":100,"lastFedDay":2,"lastFedSeason":"Spring"}],
	  "playerPosition":{"x":1,"y":0,"z":1},
	  "playerRotation":{"x":0,"y":0.5,"z":0}
	}`), &doc)
	if err := s.Validate(doc); err != nil {
		t.Fatalf("validate save doc: %v", err)
	}

	// Minimal document: optional slices absent must still validate.
	var minimal any
	_ = json.Unmarshal([]byte(`{
	  "version":"1.0.0",
	  "timestamp":1724572800000,
	  "timeData":{"hour":6,"minute":0,"day":1,"season":"Spring","year":1,"timeScale":60}
	}`), &minimal)
	if err := s.Validate(minimal); err != nil {
		t.Fatalf("validate minimal save doc: %v", err)
	}
}
