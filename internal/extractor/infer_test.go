package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferFilename(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			"explicit hint wins",
			"# filename: src/worker.py\nimport os\nprint(os.name)",
			"src/worker.py",
		},
		{
			"fastapi",
			"from fastapi import FastAPI\napp = FastAPI()\n",
			"main.py",
		},
		{
			"flask",
			"from flask import Flask\napp = Flask(__name__)\n",
			"app.py",
		},
		{
			"pytest file",
			"import pytest\n\ndef test_create_user():\n    assert True\n",
			"test_app.py",
		},
		{
			"requirement pins",
			"flask==2.3.0\nsqlalchemy==2.0.1\npytest==7.4.0\n",
			"requirements.txt",
		},
		{
			"react component",
			"import React from 'react';\n\nexport default function App() {\n  return <div/>;\n}\n",
			"src/App.jsx",
		},
		{
			"express server",
			"const express = require('express');\nconst app = express();\napp.listen(3000);\n",
			"server.js",
		},
		{
			"package json",
			"{\n  \"name\": \"demo\",\n  \"version\": \"1.0.0\",\n  \"scripts\": {}\n}",
			"package.json",
		},
		{
			"plain json",
			"{\n  \"items\": [1, 2, 3]\n}",
			"data.json",
		},
		{
			"sql schema",
			"CREATE TABLE users (\n  id INTEGER PRIMARY KEY\n);",
			"schema.sql",
		},
		{
			"sql queries",
			"SELECT id, name FROM users WHERE active = 1;",
			"queries.sql",
		},
		{
			"dockerfile",
			"FROM python:3.11-slim\nWORKDIR /app\nCOPY . .\nRUN pip install -r requirements.txt\n",
			"Dockerfile",
		},
		{
			"compose",
			"services:\n  web:\n    image: nginx:latest\n    ports:\n      - \"80:80\"\n",
			"docker-compose.yml",
		},
		{
			"kubernetes manifest",
			"apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: web\n",
			"deployment.yaml",
		},
		{
			"dotenv block",
			"PORT=3000\nDB_HOST=localhost\nDB_NAME=app\n",
			".env",
		},
		{
			"html page",
			"<!DOCTYPE html>\n<html>\n<body></body>\n</html>",
			"index.html",
		},
		{
			"stylesheet",
			".container {\n  display: flex;\n  margin: 0 auto;\n}\n",
			"styles.css",
		},
		{
			"markdown doc",
			"# Project Overview\n\nThis service exposes a REST API.\n",
			"README.md",
		},
		{
			"unrecognized falls back to index name",
			"some opaque blob of words without signatures",
			"generated_file_3.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, inferFilename(tt.content, 2))
		})
	}
}
