/*
Package nskeyed archives object graphs in the keyed-archiving format of
Apple's Foundation framework (NSKeyedArchiver), and decodes such archives
back into typed Go objects.

We implement:

1. Classes, binding a Go type to a Cocoa class name, a superclass chain and
encode/decode behavior.

2. A registry, dispatching recorded class names to decode functions when
unarchiving.

3. Type-erased object handles, so decoded values of different classes travel
through the same APIs and can be archived again.

4. Inspection and dumping of archives no registry can decode.

Property list parsing and serialization is delegated to howett.net/plist;
this package only deals in the archive structure layered on top of it.

# Technical Details

**Envelope.**
An archive is a property list dictionary with four keys: $archiver (the
archiver class name, always "NSKeyedArchiver" for archives we produce),
$objects (the object table), $top (named entry points; we read and write the
single entry "root") and $version (100000).

**Object table.**
Every archived object, string and class info record occupies one slot of the
$objects array, referenced by UID. Slot 0 holds the "$null" sentinel so that
UID 0 never points to a live object. Integers are stored inline in object
records; strings and nested objects are stored as separate slots and
referenced.

**Class info records.**
Each object record's $class key references a dictionary with $classname (the
object's class) and $classes (the class chain up to NSObject). A fresh class
info record is written per object; equal records are not shared.

**Decoding.**
The root object is resolved via $top, its recorded class name is looked up
in the registry, and the registered decode function reads fields through a
Decoder. Nested objects decode the same way recursively, except that their
failures surface as absent values rather than errors.
*/
package nskeyed
