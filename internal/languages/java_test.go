package languages

import (
	"strings"
	"testing"

	"github.com/morozRed/serialid/internal/parser"
)

func parseJava(t *testing.T, src string) *parser.FileDecls {
	t.Helper()
	file, err := NewJavaParser().Parse("Sample.java", []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return file
}

func findClass(t *testing.T, file *parser.FileDecls, qualifiedName string) *parser.ClassDecl {
	t.Helper()
	for _, class := range file.AllClasses() {
		if class.QualifiedName == qualifiedName {
			return class
		}
	}
	t.Fatalf("class %s not found", qualifiedName)
	return nil
}

func TestJavaParserResolvesDeclarations(t *testing.T) {
	file := parseJava(t, `package com.acme.geo;

import java.io.Serializable;
import java.util.*;

public class Point implements Serializable, Comparable<Point> {
    public int x, y;
    protected List<String> tags;
    static final String NAME = "point";
    static final Date CREATED = new Date();
    private static final long serialVersionUID = 42L;

    public Point(int x, int y) { this.x = x; this.y = y; }

    public Map.Entry<String, Integer>[] entries(String... keys) { return null; }

    static class Box<T> {
        T value;
    }
}
`)

	if file.Package != "com.acme.geo" {
		t.Fatalf("expected package com.acme.geo, got %q", file.Package)
	}
	point := findClass(t, file, "com.acme.geo.Point")
	if !point.Modifiers.Has("public") || point.Kind != parser.KindClass {
		t.Fatalf("unexpected class shape: %+v", point.Modifiers)
	}
	if len(point.Implements) != 2 || point.Implements[0].Binary != "java/io/Serializable" || point.Implements[1].Binary != "java/lang/Comparable" {
		t.Fatalf("unexpected interfaces: %+v", point.Implements)
	}
	if len(point.Fields) != 6 {
		t.Fatalf("expected 6 fields, got %d", len(point.Fields))
	}
	if tags := point.Fields[2]; tags.Type.Binary != "java/util/List" {
		t.Fatalf("expected tags to resolve through on-demand import, got %+v", tags.Type)
	}
	if name := point.Fields[3]; !name.ConstantInit {
		t.Fatalf("expected NAME to be a constant initializer")
	}
	if created := point.Fields[4]; created.ConstantInit || !created.HasInitializer {
		t.Fatalf("expected CREATED to be a non-constant initializer")
	}

	if point.IDField == nil || point.IDField.Literal != "42L" {
		t.Fatalf("expected id field with literal 42L, got %+v", point.IDField)
	}

	if len(point.Constructors) != 1 || len(point.Constructors[0].Params) != 2 {
		t.Fatalf("unexpected constructors: %+v", point.Constructors)
	}
	entries := point.Methods[0]
	if entries.Return.Binary != "java/util/Map$Entry" || entries.Return.Dims != 1 {
		t.Fatalf("unexpected return type: %+v", entries.Return)
	}
	if len(entries.Params) != 1 || entries.Params[0].Dims != 1 || entries.Params[0].Binary != "java/lang/String" {
		t.Fatalf("unexpected varargs parameter: %+v", entries.Params)
	}

	box := findClass(t, file, "com.acme.geo.Point$Box")
	if box.Outer != "com.acme.geo.Point" {
		t.Fatalf("expected Box nested in Point, got outer %q", box.Outer)
	}
	if box.Fields[0].Type.Resolved() {
		t.Fatalf("expected type variable T to stay unresolved, got %+v", box.Fields[0].Type)
	}
}

func TestJavaParserImpliedInterfaceModifiers(t *testing.T) {
	file := parseJava(t, `interface Shape extends java.io.Serializable {
    int SIDES = 4;
    double area();
    default String label() { return "shape"; }
    class Unit {}
}
`)

	shape := findClass(t, file, "Shape")
	if shape.Kind != parser.KindInterface || !shape.Modifiers.Has("abstract") {
		t.Fatalf("expected abstract interface, got %v %v", shape.Kind, shape.Modifiers)
	}
	if len(shape.Implements) != 1 || shape.Implements[0].Binary != "java/io/Serializable" {
		t.Fatalf("expected extended interface recorded, got %+v", shape.Implements)
	}
	sides := shape.Fields[0]
	for _, kw := range []string{"public", "static", "final"} {
		if !sides.Modifiers.Has(kw) {
			t.Fatalf("expected interface field to be %s, got %v", kw, sides.Modifiers)
		}
	}
	area, label := shape.Methods[0], shape.Methods[1]
	if !area.Modifiers.Has("abstract") || !area.Modifiers.Has("public") {
		t.Fatalf("expected public abstract area(), got %v", area.Modifiers)
	}
	if label.Modifiers.Has("abstract") || !label.Modifiers.Has("public") {
		t.Fatalf("expected public non-abstract label(), got %v", label.Modifiers)
	}
	unit := findClass(t, file, "Shape$Unit")
	if !unit.Modifiers.Has("public") || !unit.Modifiers.Has("static") {
		t.Fatalf("expected member class of interface to be public static, got %v", unit.Modifiers)
	}
}

func TestJavaParserRecordsUsages(t *testing.T) {
	file := parseJava(t, `public class Outer implements java.io.Serializable {
    private int count;
    private static String prefix() { return "p"; }

    void check() {
        assert count >= 0;
        Class<?> c = String.class;
    }

    void shadow() {
        int count = 3;
        count++;
    }

    class Inner {
        void bump() {
            count++;
            Outer.this.count = 2;
            prefix();
        }
    }

    Runnable task = new Runnable() {
        public void run() { count--; }
    };
}
`)

	outer := findClass(t, file, "Outer")
	var asserts, literals, fieldAccess, calls int
	operators := map[string]bool{}
	for _, u := range outer.Usages {
		switch u.Kind {
		case parser.UsageAssert:
			asserts++
		case parser.UsageClassLiteral:
			literals++
			if u.Type.Binary != "java/lang/String" {
				t.Fatalf("unexpected class literal type %+v", u.Type)
			}
		case parser.UsageFieldAccess:
			fieldAccess++
			operators[u.Operator] = true
			if u.Innermost() == "Outer" && u.Line == 6 {
				continue
			}
			if u.Innermost() == "Outer" {
				t.Fatalf("local count shadows the field, got usage at line %d", u.Line)
			}
		case parser.UsageMethodCall:
			calls++
			if !u.Private || !u.Static || u.Owner != "Outer" {
				t.Fatalf("unexpected method usage %+v", u)
			}
		}
	}
	if asserts != 1 || literals != 1 || calls != 1 {
		t.Fatalf("expected 1 assert, 1 literal and 1 call, got %d %d %d", asserts, literals, calls)
	}
	// assert count, Inner count++, Outer.this.count = 2, anonymous count--
	if fieldAccess != 4 {
		t.Fatalf("expected 4 field usages, got %d", fieldAccess)
	}
	for _, op := range []string{"", "++post", "=", "--post"} {
		if !operators[op] {
			t.Fatalf("expected operator %q among %v", op, operators)
		}
	}

	anon := findClass(t, file, "Outer$1")
	if !anon.Anonymous || anon.Outer != "Outer" {
		t.Fatalf("expected anonymous class Outer$1, got %+v", anon)
	}
}

func TestJavaParserNamesLocalClasses(t *testing.T) {
	file := parseJava(t, `class Host {
    void a() { class Helper {} }
    void b() { class Helper {} }
}
`)
	first := findClass(t, file, "Host$1Helper")
	second := findClass(t, file, "Host$2Helper")
	if !first.Local || !second.Local {
		t.Fatalf("expected local classes")
	}
}

func TestJavaParserIDFieldWithoutInitializer(t *testing.T) {
	file := parseJava(t, `class Legacy implements java.io.Serializable {
    static long serialVersionUID;
}
`)
	legacy := findClass(t, file, "Legacy")
	if legacy.IDField == nil || legacy.IDField.Literal != "" {
		t.Fatalf("expected empty id field, got %+v", legacy.IDField)
	}
	if legacy.Body.Empty() {
		t.Fatalf("expected body span")
	}
}

func TestJavaParserResolvesTypedQualifiers(t *testing.T) {
	file := parseJava(t, `package p;

class O {
    private int count;
    private O next;

    static class In {
        void a(O o, Object raw) {
            o.count += 2;
            O local = o;
            local.count++;
            ((O) raw).count--;
            o.next.count = 1;
        }
    }
}
`)

	var got []string
	for _, u := range findClass(t, file, "p.O$In").Usages {
		if u.Kind == parser.UsageFieldAccess && u.Owner == "p.O" {
			got = append(got, u.Target+u.Operator)
		}
	}
	want := []string{"count=", "count++post", "count--post", "next", "count="}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("expected field usages %v, got %v", want, got)
	}
}
